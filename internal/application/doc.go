// Package application provides application initialization and dependency wiring.
// It resolves the initial settings and connects the snapshot store, metrics,
// backend checker, HTTP handlers and file watcher, keeping the main package
// focused on CLI parsing and orchestration.
package application
