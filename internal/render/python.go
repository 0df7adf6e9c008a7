package render

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

const pythonHeader = `# -*- coding: utf-8 -*-
#
# Django settings for Weblate, generated from the container environment.
#
`

// overrideHookPath is where the stock image looks for operator Python.
const overrideHookPath = settings.DefaultDataDir + "/settings-override.py"

const overrideHook = `
ADDITIONAL_CONFIG = %s
if os.path.exists(ADDITIONAL_CONFIG):
    with open(ADDITIONAL_CONFIG) as handle:
        code = compile(handle.read(), ADDITIONAL_CONFIG, 'exec')
        exec(code)
`

type assignment struct {
	name  string
	value any
}

func renderPython(w io.Writer, s *settings.Settings, opts Options) error {
	var b strings.Builder
	b.WriteString(pythonHeader)
	b.WriteString("\nfrom __future__ import unicode_literals\n")
	if opts.OverrideHook {
		b.WriteString("import os\n")
	}
	for _, imp := range pythonImports(s) {
		b.WriteString(imp + "\n")
	}
	b.WriteString("\n")

	for _, a := range djangoSettings(s) {
		lit, err := pyLiteral(a.value)
		if err != nil {
			return fmt.Errorf("render %s: %w", a.name, err)
		}
		fmt.Fprintf(&b, "%s = %s\n", a.name, lit)
	}

	if opts.OverrideHook {
		hookPath := overrideHookPath
		if s.Paths.DataDir != "" {
			hookPath = path.Join(s.Paths.DataDir, "settings-override.py")
		}
		fmt.Fprintf(&b, overrideHook, pyString(hookPath))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write python settings: %w", err)
	}
	return nil
}

// pythonImports binds the exception classes referenced by the Rollbar
// filters.
func pythonImports(s *settings.Settings) []string {
	if s.Rollbar == nil {
		return nil
	}
	var out []string
	for _, dotted := range s.Rollbar.IgnoredExceptions {
		module, name := splitDotted(dotted)
		if module == "" {
			continue
		}
		out = append(out, fmt.Sprintf("from %s import %s", module, name))
	}
	sort.Strings(out)
	return out
}

func splitDotted(dotted string) (module, name string) {
	i := strings.LastIndex(dotted, ".")
	if i < 0 {
		return "", dotted
	}
	return dotted[:i], dotted[i+1:]
}

// djangoSettings maps the tree onto Django setting names in module order.
func djangoSettings(s *settings.Settings) []assignment {
	admins := make(pyTuple, 0, len(s.Admins))
	for _, c := range s.Admins {
		admins = append(admins, pyTuple{c.Name, c.Email})
	}
	managers := make(pyTuple, 0, len(s.Managers))
	for _, c := range s.Managers {
		managers = append(managers, pyTuple{c.Name, c.Email})
	}

	languages := make(pyTuple, 0, len(s.Locale.Languages))
	for _, l := range s.Locale.Languages {
		languages = append(languages, pyTuple{l.Code, l.Name})
	}

	out := []assignment{
		{"DEBUG", s.Debug},
		{"ADMINS", admins},
		{"MANAGERS", managers},
		{"DATABASES", pyDict{{"default", pyDict{
			{"ENGINE", s.Database.Engine},
			{"NAME", s.Database.Name},
			{"TEST", pyDict{{"NAME", s.Database.TestName}}},
			{"USER", s.Database.User},
			{"PASSWORD", s.Database.Password},
			{"HOST", s.Database.Host},
			{"PORT", s.Database.Port},
		}}}},
		{"BASE_DIR", s.Paths.BaseDir},
		{"DATA_DIR", s.Paths.DataDir},
		{"TIME_ZONE", s.Locale.TimeZone},
		{"LANGUAGE_CODE", s.Locale.LanguageCode},
		{"LANGUAGES", languages},
		{"SITE_ID", s.Site.ID},
		{"USE_I18N", s.Locale.UseI18N},
		{"USE_L10N", s.Locale.UseL10N},
		{"USE_TZ", s.Locale.UseTZ},
		{"URL_PREFIX", s.Site.URLPrefix},
		{"MEDIA_ROOT", s.Paths.MediaRoot},
		{"MEDIA_URL", s.URLs.MediaURL},
		{"STATIC_ROOT", s.Paths.StaticRoot},
		{"STATIC_URL", s.URLs.StaticURL},
		{"STATICFILES_DIRS", tuple(s.Paths.StaticDirs)},
		{"STATICFILES_FINDERS", tuple(s.Paths.StaticFinders)},
		{"SECRET_KEY", s.SecretKey},
		{"TEMPLATES", []any{pyDict{
			{"BACKEND", s.Templates.Backend},
			{"DIRS", s.Templates.Dirs},
			{"OPTIONS", pyDict{
				{"context_processors", s.Templates.ContextProcessors},
				{"loaders", []any{pyTuple{"django.template.loaders.cached.Loader", s.Templates.CachedLoaders}}},
			}},
		}}},
		{"GITHUB_USERNAME", s.Site.GithubUsername},
		{"AUTHENTICATION_BACKENDS", tuple(s.Auth.Backends)},
		{"AUTH_USER_MODEL", s.Auth.UserModel},
	}

	out = append(out, socialAssignments(s.Auth.Providers)...)

	if l := s.Auth.LDAP; l != nil {
		out = append(out,
			assignment{"AUTH_LDAP_SERVER_URI", l.ServerURI},
			assignment{"AUTH_LDAP_USER_DN_TEMPLATE", l.UserDNTemplate},
			assignment{"AUTH_LDAP_USER_ATTR_MAP", l.UserAttrMap},
		)
	}

	validators := make([]any, 0, len(s.Auth.PasswordValidators))
	for _, v := range s.Auth.PasswordValidators {
		d := pyDict{{"NAME", v.Name}}
		if len(v.Options) > 0 {
			d = append(d, pyItem{"OPTIONS", v.Options})
		}
		validators = append(validators, d)
	}

	out = append(out,
		assignment{"SOCIAL_AUTH_PIPELINE", tuple(s.Auth.Pipeline)},
		assignment{"SOCIAL_AUTH_DISCONNECT_PIPELINE", tuple(s.Auth.DisconnectPipeline)},
		assignment{"SOCIAL_AUTH_STRATEGY", s.Auth.Strategy},
		assignment{"SOCIAL_AUTH_RAISE_EXCEPTIONS", s.Auth.RaiseExceptions},
		assignment{"SOCIAL_AUTH_EMAIL_VALIDATION_FUNCTION", s.Auth.EmailValidationFunction},
		assignment{"SOCIAL_AUTH_EMAIL_VALIDATION_URL", s.URLs.EmailValidationURL},
		assignment{"SOCIAL_AUTH_LOGIN_ERROR_URL", s.URLs.LoginErrorURL},
		assignment{"SOCIAL_AUTH_EMAIL_FORM_URL", s.URLs.EmailFormURL},
		assignment{"SOCIAL_AUTH_NEW_ASSOCIATION_REDIRECT_URL", s.URLs.NewAssociationRedirectURL},
		assignment{"SOCIAL_AUTH_PROTECTED_USER_FIELDS", tuple(s.Auth.ProtectedUserFields)},
		assignment{"SOCIAL_AUTH_SLUGIFY_USERNAMES", s.Auth.SlugifyUsernames},
		assignment{"SOCIAL_AUTH_SLUGIFY_FUNCTION", s.Auth.SlugifyFunction},
		assignment{"AUTH_PASSWORD_VALIDATORS", validators},
		assignment{"MIDDLEWARE", s.Middleware},
	)

	if r := s.Rollbar; r != nil {
		filters := make([]any, 0, len(r.IgnoredExceptions))
		for _, dotted := range r.IgnoredExceptions {
			_, name := splitDotted(dotted)
			filters = append(filters, pyTuple{pyExpr(name), "ignored"})
		}
		out = append(out, assignment{"ROLLBAR", pyDict{
			{"access_token", r.AccessToken},
			{"environment", r.Environment},
			{"branch", r.Branch},
			{"root", r.Root},
			{"exception_level_filters", filters},
		}})
	}

	out = append(out,
		assignment{"ROOT_URLCONF", s.Site.RootURLConf},
		assignment{"INSTALLED_APPS", s.InstalledApps},
	)

	if sn := s.Sentry; sn != nil {
		out = append(out, assignment{"RAVEN_CONFIG", pyDict{
			{"dsn", sn.DSN},
			{"public_dsn", sn.PublicDSN},
			{"environment", sn.Environment},
			{"release", sn.Release},
			{"string_max_length", sn.StringMaxLength},
			{"list_max_length", sn.ListMaxLength},
		}})
	}

	out = append(out,
		assignment{"LOCALE_PATHS", tuple(s.Paths.LocalePaths)},
		assignment{"DEFAULT_EXCEPTION_REPORTER_FILTER", s.Site.ExceptionReporterFilter},
		assignment{"HAVE_SYSLOG", s.Logging.HaveSyslog},
		assignment{"DEFAULT_LOG", s.Logging.DefaultHandler},
		assignment{"LOGGING", loggingDict(s.Logging)},
	)

	m := s.Machinery
	out = append(out,
		assignment{"MT_SERVICES", tuple(m.Services)},
		assignment{"MT_APERTIUM_APY", m.ApertiumAPY},
		assignment{"MT_DEEPL_KEY", m.DeepLKey},
		assignment{"MT_MICROSOFT_COGNITIVE_KEY", m.MicrosoftCognitiveKey},
		assignment{"MT_MYMEMORY_EMAIL", m.MyMemoryEmail},
		assignment{"MT_MYMEMORY_USER", m.MyMemoryUser},
		assignment{"MT_MYMEMORY_KEY", m.MyMemoryKey},
		assignment{"MT_GOOGLE_KEY", m.GoogleKey},
		assignment{"MT_BAIDU_ID", m.BaiduID},
		assignment{"MT_BAIDU_SECRET", m.BaiduSecret},
		assignment{"MT_YOUDAO_ID", m.YoudaoID},
		assignment{"MT_YOUDAO_SECRET", m.YoudaoSecret},
		assignment{"MT_YANDEX_KEY", m.YandexKey},
		assignment{"MT_TMSERVER", m.TMServer},
		assignment{"MT_SAP_BASE_URL", m.SAPBaseURL},
		assignment{"MT_SAP_SANDBOX_APIKEY", m.SAPSandboxAPIKey},
		assignment{"MT_SAP_USERNAME", m.SAPUsername},
		assignment{"MT_SAP_PASSWORD", m.SAPPassword},
		assignment{"MT_SAP_USE_MT", m.SAPUseMT},
	)

	sec := s.Security
	out = append(out,
		assignment{"SITE_TITLE", s.Site.Title},
		assignment{"ENABLE_HTTPS", sec.EnableHTTPS},
		assignment{"SOCIAL_AUTH_REDIRECT_IS_HTTPS", sec.SocialAuthRedirectIsHTTPS},
		assignment{"CSRF_COOKIE_HTTPONLY", sec.CSRFCookieHTTPOnly},
		assignment{"CSRF_COOKIE_SECURE", sec.CSRFCookieSecure},
		assignment{"CSRF_USE_SESSIONS", sec.CSRFUseSessions},
		assignment{"SESSION_COOKIE_SECURE", sec.SessionCookieSecure},
		assignment{"SECURE_SSL_REDIRECT", sec.SecureSSLRedirect},
		assignment{"SESSION_COOKIE_AGE", sec.SessionCookieAge},
		assignment{"SECURE_BROWSER_XSS_FILTER", sec.BrowserXSSFilter},
		assignment{"X_FRAME_OPTIONS", sec.XFrameOptions},
		assignment{"SECURE_CONTENT_TYPE_NOSNIFF", sec.ContentTypeNosniff},
		assignment{"SECURE_HSTS_SECONDS", sec.HSTSSeconds},
		assignment{"SECURE_HSTS_PRELOAD", sec.HSTSPreload},
		assignment{"SECURE_HSTS_INCLUDE_SUBDOMAINS", sec.HSTSIncludeSubdomains},
		assignment{"LOGIN_URL", s.URLs.LoginURL},
		assignment{"LOGOUT_URL", s.URLs.LogoutURL},
		assignment{"LOGIN_REDIRECT_URL", s.URLs.LoginRedirectURL},
		assignment{"ANONYMOUS_USER_NAME", s.Site.AnonymousUserName},
		assignment{"IP_PROXY_HEADER", sec.IPProxyHeader},
		assignment{"IP_BEHIND_REVERSE_PROXY", sec.IPBehindReverseProxy},
		assignment{"IP_PROXY_OFFSET", sec.IPProxyOffset},
		assignment{"EMAIL_SEND_HTML", s.Email.SendHTML},
		assignment{"EMAIL_SUBJECT_PREFIX", s.Email.SubjectPrefix},
		assignment{"ENABLE_HOOKS", s.Site.EnableHooks},
		assignment{"NEARBY_MESSAGES", s.Site.NearbyMessages},
		assignment{"SIMPLIFY_LANGUAGES", s.Locale.SimplifyLanguages},
		assignment{"CRISPY_TEMPLATE_PACK", s.Site.CrispyTemplatePack},
		assignment{"SERVER_EMAIL", s.Email.ServerEmail},
		assignment{"DEFAULT_FROM_EMAIL", s.Email.DefaultFromEmail},
		assignment{"ALLOWED_HOSTS", s.Security.AllowedHosts},
		assignment{"CACHES", cachesDict(s.Caches)},
		assignment{"SESSION_ENGINE", s.SessionEngine},
		assignment{"REST_FRAMEWORK", restDict(s.REST)},
	)

	if s.Access.RequireLogin {
		out = append(out,
			assignment{"LOGIN_REQUIRED_URLS", tuple(s.Access.LoginRequiredURLs)},
			assignment{"LOGIN_REQUIRED_URLS_EXCEPTIONS", s.Access.LoginRequiredURLsExceptions},
		)
	}

	out = append(out,
		assignment{"REGISTRATION_OPEN", s.Site.RegistrationOpen},
		assignment{"TEST_RUNNER", s.Site.TestRunner},
		assignment{"EMAIL_USE_TLS", s.Email.UseTLS},
		assignment{"EMAIL_USE_SSL", s.Email.UseSSL},
		assignment{"EMAIL_HOST", s.Email.Host},
		assignment{"EMAIL_HOST_USER", s.Email.HostUser},
		assignment{"EMAIL_HOST_PASSWORD", s.Email.HostPassword},
		assignment{"EMAIL_PORT", s.Email.Port},
		assignment{"GOOGLE_ANALYTICS_ID", s.Site.GoogleAnalyticsID},
		assignment{"AKISMET_API_KEY", s.Site.AkismetAPIKey},
		assignment{"CELERY_TASK_ALWAYS_EAGER", s.Celery.TaskAlwaysEager},
		assignment{"CELERY_BROKER_URL", s.Celery.BrokerURL},
		assignment{"CELERY_WORKER_PREFETCH_MULTIPLIER", s.Celery.WorkerPrefetchMultiplier},
		assignment{"CELERY_BEAT_SCHEDULE_FILENAME", s.Celery.BeatScheduleFilename},
	)
	return out
}

func socialAssignments(providers []settings.SocialProvider) []assignment {
	var out []assignment
	for _, p := range providers {
		prefix := "SOCIAL_AUTH_" + strings.ToUpper(p.Name)
		if p.APIURL != nil {
			out = append(out, assignment{prefix + "_API_URL", *p.APIURL})
		}
		out = append(out,
			assignment{prefix + "_KEY", p.Key},
			assignment{prefix + "_SECRET", p.Secret},
		)
		if len(p.Scope) > 0 {
			out = append(out, assignment{prefix + "_SCOPE", p.Scope})
		}
		if p.VerifiedEmailsOnly {
			out = append(out, assignment{prefix + "_VERIFIED_EMAILS_ONLY", true})
		}
	}
	return out
}

func loggingDict(l settings.Logging) pyDict {
	filters := map[string]any{}
	for name, f := range l.Filters {
		filters[name] = map[string]any{"()": f.Factory}
	}

	formatters := map[string]any{}
	for name, f := range l.Formatters {
		d := map[string]any{"format": f.Format}
		if f.Factory != "" {
			d["()"] = f.Factory
		}
		formatters[name] = d
	}

	handlers := map[string]any{}
	for name, h := range l.Handlers {
		d := map[string]any{"level": h.Level, "class": h.Class}
		if h.Formatter != "" {
			d["formatter"] = h.Formatter
		}
		if len(h.Filters) > 0 {
			d["filters"] = h.Filters
		}
		if h.IncludeHTML {
			d["include_html"] = true
		}
		if h.Address != "" {
			d["address"] = h.Address
		}
		if h.Facility != 0 {
			d["facility"] = h.Facility
		}
		handlers[name] = d
	}

	loggers := map[string]any{}
	for name, lg := range l.Loggers {
		d := map[string]any{"handlers": lg.Handlers, "level": lg.Level}
		if lg.Propagate != nil {
			d["propagate"] = *lg.Propagate
		}
		loggers[name] = d
	}

	return pyDict{
		{"version", l.Version},
		{"disable_existing_loggers", l.DisableExistingLoggers},
		{"filters", filters},
		{"formatters", formatters},
		{"handlers", handlers},
		{"loggers", loggers},
	}
}

func cachesDict(caches map[string]settings.Cache) map[string]any {
	out := make(map[string]any, len(caches))
	for name, c := range caches {
		d := pyDict{
			{"BACKEND", c.Backend},
			{"LOCATION", c.Location},
		}
		if c.Timeout != nil {
			d = append(d, pyItem{"TIMEOUT", *c.Timeout})
		}
		if len(c.Options) > 0 {
			d = append(d, pyItem{"OPTIONS", c.Options})
		}
		if c.KeyPrefix != "" {
			d = append(d, pyItem{"KEY_PREFIX", c.KeyPrefix})
		}
		out[name] = d
	}
	return out
}

func restDict(r settings.RESTFramework) pyDict {
	return pyDict{
		{"DEFAULT_PERMISSION_CLASSES", r.PermissionClasses},
		{"DEFAULT_AUTHENTICATION_CLASSES", tuple(r.AuthenticationClasses)},
		{"DEFAULT_THROTTLE_CLASSES", tuple(r.ThrottleClasses)},
		{"DEFAULT_THROTTLE_RATES", r.ThrottleRates},
		{"DEFAULT_PAGINATION_CLASS", r.PaginationClass},
		{"PAGE_SIZE", r.PageSize},
		{"VIEW_DESCRIPTION_FUNCTION", r.ViewDescriptionFunction},
		{"UNAUTHENTICATED_USER", r.UnauthenticatedUser},
	}
}

func tuple(items []string) pyTuple {
	out := make(pyTuple, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}
