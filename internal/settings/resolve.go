package settings

import (
	"fmt"
	"os"
	"path"

	"github.com/eugenenazirov/weblate-settings/internal/env"
)

// Options carries the filesystem facts resolution depends on.
type Options struct {
	// DataDir is the persistent data volume. Defaults to DefaultDataDir.
	DataDir string
	// BaseDir is the installation directory of the weblate package.
	BaseDir string
	// SecretFile defaults to <DataDir>/secret.
	SecretFile string
	// ReadFile reads the secret file. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
	// SyslogAvailable probes the local syslog socket. Defaults to dialling
	// DefaultSyslogAddress.
	SyslogAvailable func() bool
}

// DefaultOptions returns options for the stock container layout.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.DataDir == "" {
		o.DataDir = DefaultDataDir
	}
	if o.BaseDir == "" {
		o.BaseDir = DefaultBaseDir
	}
	if o.SecretFile == "" {
		o.SecretFile = path.Join(o.DataDir, "secret")
	}
	if o.ReadFile == nil {
		o.ReadFile = os.ReadFile
	}
	if o.SyslogAvailable == nil {
		o.SyslogAvailable = func() bool { return SyslogAvailable(DefaultSyslogAddress) }
	}
	return o
}

// Resolve builds the settings tree from src. Every missing required variable
// and malformed value is reported in a single error wrapping ErrResolve.
func Resolve(src env.Source, opts Options) (*Settings, error) {
	opts = opts.withDefaults()
	r := env.NewReader(src)

	debug := r.Flag("WEBLATE_DEBUG", true)

	admin := Contact{
		Name:  r.Required("WEBLATE_ADMIN_NAME"),
		Email: r.Required("WEBLATE_ADMIN_EMAIL"),
	}

	dbName := r.Required("POSTGRES_DATABASE")
	database := Database{
		Engine:   databaseEngine,
		Name:     dbName,
		TestName: dbName,
		User:     r.Required("POSTGRES_USER"),
		Password: r.Required("POSTGRES_PASSWORD"),
		Host:     r.Required("POSTGRES_HOST"),
		Port:     r.Required("POSTGRES_PORT"),
	}

	urlPrefix := ""
	siteTitle := r.String("WEBLATE_SITE_TITLE", "Weblate")

	s := &Settings{
		Debug:    debug,
		Admins:   []Contact{admin},
		Managers: []Contact{admin},
		Database: database,
		Paths: Paths{
			BaseDir:       opts.BaseDir,
			DataDir:       opts.DataDir,
			MediaRoot:     path.Join(opts.DataDir, "media"),
			StaticRoot:    path.Join(opts.DataDir, "static"),
			StaticDirs:    []string{},
			LocalePaths:   []string{path.Join(opts.BaseDir, "weblate", "locale")},
			StaticFinders: clone(staticFinders),
		},
		Locale: Locale{
			TimeZone:          r.String("WEBLATE_TIME_ZONE", "UTC"),
			LanguageCode:      "en-us",
			Languages:         Languages(),
			UseI18N:           true,
			UseL10N:           true,
			UseTZ:             true,
			SimplifyLanguages: r.Flag("WEBLATE_SIMPLIFY_LANGUAGES", true),
		},
		Site: Site{
			ID:                      1,
			Title:                   siteTitle,
			URLPrefix:               urlPrefix,
			RootURLConf:             "weblate.urls",
			GithubUsername:          r.Optional("WEBLATE_GITHUB_USERNAME"),
			RegistrationOpen:        r.Flag("WEBLATE_REGISTRATION_OPEN", true),
			GoogleAnalyticsID:       r.String("WEBLATE_GOOGLE_ANALYTICS_ID", ""),
			AkismetAPIKey:           r.Optional("WEBLATE_AKISMET_API_KEY"),
			EnableHooks:             true,
			NearbyMessages:          5,
			AnonymousUserName:       "anonymous",
			CrispyTemplatePack:      "bootstrap3",
			ExceptionReporterFilter: "weblate.trans.debug.WeblateExceptionReporterFilter",
			TestRunner:              "django.test.runner.DiscoverRunner",
		},
		Templates: Templates{
			Backend:           "django.template.backends.django.DjangoTemplates",
			Dirs:              []string{path.Join(opts.BaseDir, "weblate", "templates")},
			ContextProcessors: clone(contextProcessors),
			CachedLoaders:     clone(cachedLoaders),
		},
		Auth:          resolveAuth(r),
		Middleware:    clone(middleware),
		InstalledApps: clone(installedApps),
		Machinery:     resolveMachinery(r, admin.Email),
		URLs:          resolveURLs(urlPrefix),
		Email:         resolveEmail(r, siteTitle),
		SessionEngine: "django.contrib.sessions.backends.cache",
		REST:          restFramework(),
	}

	s.SecretKey, s.SecretSource = resolveSecret(r, opts.SecretFile, opts.ReadFile)

	if r.Has("ROLLBAR_KEY") {
		s.Middleware = append(s.Middleware, rollbarMiddleware)
		s.Rollbar = &Rollbar{
			AccessToken: r.String("ROLLBAR_KEY", ""),
			Environment: r.String("ROLLBAR_ENVIRONMENT", "production"),
			Branch:      "master",
			Root:        path.Join(opts.BaseDir, "weblate") + "/",
			IgnoredExceptions: []string{
				"django.core.exceptions.PermissionDenied",
				"django.http.Http404",
			},
		}
	}

	if r.Has("SENTRY_DSN") {
		s.Sentry = &Sentry{
			DSN:             r.String("SENTRY_DSN", ""),
			PublicDSN:       r.String("SENTRY_PUBLIC_DSN", ""),
			Environment:     r.String("SENTRY_ENVIRONMENT", "production"),
			Release:         "weblate-" + r.Required("VERSION"),
			StringMaxLength: 1000,
			ListMaxLength:   100,
		}
		s.InstalledApps = append(s.InstalledApps, ravenApp)
	}

	s.Logging = resolveLogging(debug, opts.SyslogAvailable(), r.String("WEBLATE_LOGLEVEL", "DEBUG"))
	s.Security = resolveSecurity(r)
	s.Access = resolveAccess(r)
	s.Caches, s.Celery = resolveCaches(r, opts.DataDir)

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	return s, nil
}

func resolveURLs(prefix string) URLs {
	return URLs{
		MediaURL:                  prefix + "/media/",
		StaticURL:                 prefix + "/static/",
		LoginURL:                  prefix + "/accounts/login/",
		LogoutURL:                 prefix + "/accounts/logout/",
		LoginRedirectURL:          prefix + "/",
		EmailValidationURL:        prefix + "/accounts/email-sent/",
		LoginErrorURL:             prefix + "/accounts/login/",
		EmailFormURL:              prefix + "/accounts/email/",
		NewAssociationRedirectURL: prefix + "/accounts/profile/#auth",
	}
}

func resolveEmail(r *env.Reader, siteTitle string) Email {
	return Email{
		ServerEmail:      r.Required("WEBLATE_SERVER_EMAIL"),
		DefaultFromEmail: r.Required("WEBLATE_DEFAULT_FROM_EMAIL"),
		UseTLS:           r.Flag("WEBLATE_EMAIL_USE_TLS", true),
		UseSSL:           r.Flag("WEBLATE_EMAIL_USE_SSL", false),
		Host:             r.String("WEBLATE_EMAIL_HOST", "localhost"),
		HostUser:         r.String("WEBLATE_EMAIL_HOST_USER", r.String("WEBLATE_EMAIL_USER", "")),
		HostPassword:     r.String("WEBLATE_EMAIL_HOST_PASSWORD", r.String("WEBLATE_EMAIL_PASSWORD", "")),
		Port:             r.Int("WEBLATE_EMAIL_PORT", 25),
		SendHTML:         true,
		SubjectPrefix:    fmt.Sprintf("[%s] ", siteTitle),
	}
}

func resolveSecurity(r *env.Reader) Security {
	https := r.Flag("WEBLATE_ENABLE_HTTPS", false)
	proxyHeader := r.String("WEBLATE_IP_PROXY_HEADER", "")
	return Security{
		EnableHTTPS:               https,
		SocialAuthRedirectIsHTTPS: https,
		CSRFCookieHTTPOnly:        true,
		CSRFCookieSecure:          https,
		CSRFUseSessions:           true,
		SessionCookieSecure:       https,
		SessionCookieAge:          sessionCookieAge,
		SecureSSLRedirect:         https,
		BrowserXSSFilter:          true,
		XFrameOptions:             "DENY",
		ContentTypeNosniff:        true,
		AllowedHosts:              r.List("WEBLATE_ALLOWED_HOSTS", []string{"*"}),
		IPProxyHeader:             proxyHeader,
		IPBehindReverseProxy:      proxyHeader != "",
	}
}

func resolveAccess(r *env.Reader) Access {
	if !r.Flag("WEBLATE_REQUIRE_LOGIN", false) {
		return Access{}
	}
	return Access{
		RequireLogin:                true,
		LoginRequiredURLs:           []string{`/(.*)$`},
		LoginRequiredURLsExceptions: r.List("WEBLATE_LOGIN_REQUIRED_URLS_EXCEPTIONS", defaultLoginExceptions),
	}
}

// DefaultCache returns the "default" CACHES entry.
func (s *Settings) DefaultCache() Cache {
	return s.Caches[DefaultCacheName]
}

// ProviderEnabled reports whether the named social provider is active.
func (s *Settings) ProviderEnabled(name string) bool {
	p, ok := s.Auth.Provider(name)
	return ok && p.Enabled
}
