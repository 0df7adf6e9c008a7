package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/render"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
	"github.com/eugenenazirov/weblate-settings/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Reloader re-resolves settings and stores the new snapshot.
type Reloader interface {
	Reload() (storage.Snapshot, error)
}

// Handler wires storage, reload and backend probing into HTTP handlers.
type Handler struct {
	storage  storage.Storage
	reloader Reloader
	checker  *probe.Checker
	probes   func(*settings.Settings) []probe.Probe

	overrideHook bool
	clock        func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReloader enables POST /api/settings/reload.
func WithReloader(r Reloader) HandlerOption {
	return func(h *Handler) {
		h.reloader = r
	}
}

// WithChecker sets the checker used by /api/checks.
func WithChecker(c *probe.Checker) HandlerOption {
	return func(h *Handler) {
		h.checker = c
	}
}

// WithProbes overrides how probes are derived from settings.
func WithProbes(fn func(*settings.Settings) []probe.Probe) HandlerOption {
	return func(h *Handler) {
		h.probes = fn
	}
}

// WithOverrideHook makes rendered Python include the settings-override.py
// exec block.
func WithOverrideHook(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.overrideHook = enabled
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		checker: &probe.Checker{},
		probes:  probe.FromSettings,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	snap, err := h.storage.Current()
	switch {
	case errors.Is(err, storage.ErrEmpty):
		resp.Status = "starting"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	case err != nil:
		writeInternalError(w, err)
		return
	}
	resp.Revision = snap.Revision
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap, ok := h.current(w)
	if !ok {
		return
	}

	redacted, err := snap.Settings.Redacted()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	tree, err := render.Tree(redacted)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := settingsResponse{
		snapshotInfo: infoFor(snap),
		Settings:     tree,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRenderSettings(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(render.FormatJSON)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err.Error(), "Supported formats: json, yaml, toml, python, env")
		return
	}

	snap, ok := h.current(w)
	if !ok {
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := render.Render(&buf, snap.Settings, format, render.Options{OverrideHook: h.overrideHook}); err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Settings-Revision", snap.Revision)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	if h.reloader == nil {
		writeError(w, http.StatusNotImplemented, "Reload unavailable", "settings were loaded once and cannot be reloaded")
		return
	}

	snap, err := h.reloader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Reload failed", err.Error(), "The previous settings remain active")
		return
	}

	resp := reloadResponse{
		snapshotInfo: infoFor(snap),
		Findings:     findingsOrEmpty(snap.Findings),
		Message:      "Settings reloaded successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVariables(w http.ResponseWriter, r *http.Request) {
	_ = r
	vars := settings.Variables()
	writeJSON(w, http.StatusOK, variablesResponse{Variables: vars, Count: len(vars)})
}

func (h *Handler) handleLint(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap, ok := h.current(w)
	if !ok {
		return
	}

	resp := lintResponse{
		Revision: snap.Revision,
		Findings: findingsOrEmpty(snap.Findings),
	}
	for _, f := range snap.Findings {
		if f.Severity == settings.SeverityWarning {
			resp.Warnings++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBackends(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap, ok := h.current(w)
	if !ok {
		return
	}

	probes := h.probes(snap.Settings)
	backends := make([]backendInfo, 0, len(probes))
	for _, p := range probes {
		backends = append(backends, backendInfo{Name: p.Name(), Target: p.Target()})
	}
	writeJSON(w, http.StatusOK, backendsResponse{Revision: snap.Revision, Backends: backends})
}

func (h *Handler) handleChecks(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}

	results := h.checker.Run(r.Context(), h.probes(snap.Settings))
	resp := checksResponse{
		Revision: snap.Revision,
		Healthy:  probe.Summary(results) == nil,
		Results:  results,
	}
	status := http.StatusOK
	if !resp.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *Handler) current(w http.ResponseWriter) (storage.Snapshot, bool) {
	snap, err := h.storage.Current()
	if err != nil {
		if errors.Is(err, storage.ErrEmpty) {
			writeError(w, http.StatusServiceUnavailable, "Settings unavailable", err.Error())
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snap, true
}

func infoFor(snap storage.Snapshot) snapshotInfo {
	return snapshotInfo{
		Revision:   snap.Revision,
		ResolvedAt: snap.ResolvedAt,
		Override:   snap.Override,
	}
}

func findingsOrEmpty(f []settings.Finding) []settings.Finding {
	if f == nil {
		return []settings.Finding{}
	}
	return f
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type snapshotInfo struct {
	Revision   string    `json:"revision"`
	ResolvedAt time.Time `json:"resolvedAt"`
	Override   string    `json:"override,omitempty"`
}

type settingsResponse struct {
	snapshotInfo
	Settings map[string]any `json:"settings"`
}

type reloadResponse struct {
	snapshotInfo
	Findings []settings.Finding `json:"findings"`
	Message  string             `json:"message"`
}

type variablesResponse struct {
	Variables []settings.Variable `json:"variables"`
	Count     int                 `json:"count"`
}

type lintResponse struct {
	Revision string             `json:"revision"`
	Findings []settings.Finding `json:"findings"`
	Warnings int                `json:"warnings"`
}

type backendInfo struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

type backendsResponse struct {
	Revision string        `json:"revision"`
	Backends []backendInfo `json:"backends"`
}

type checksResponse struct {
	Revision string         `json:"revision"`
	Healthy  bool           `json:"healthy"`
	Results  []probe.Result `json:"results"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Revision  string    `json:"revision,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
