package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/weblate-settings/internal/env"
)

func baseEnv() env.Map {
	return env.Map{
		"WEBLATE_ADMIN_NAME":         "Weblate Admin",
		"WEBLATE_ADMIN_EMAIL":        "admin@example.com",
		"POSTGRES_DATABASE":          "weblate",
		"POSTGRES_USER":              "weblate",
		"POSTGRES_PASSWORD":          "s3cret",
		"POSTGRES_HOST":              "database",
		"POSTGRES_PORT":              "5432",
		"WEBLATE_SERVER_EMAIL":       "server@example.com",
		"WEBLATE_DEFAULT_FROM_EMAIL": "noreply@example.com",
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		DataDir:         "/app/data",
		SecretFile:      filepath.Join(t.TempDir(), "secret"),
		SyslogAvailable: func() bool { return false },
	}
}

func resolve(t *testing.T, vars env.Map) *Settings {
	t.Helper()
	s, err := Resolve(vars, testOptions(t))
	require.NoError(t, err)
	return s
}

func with(vars env.Map, kv ...string) env.Map {
	out := env.Map{}
	for k, v := range vars {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

func TestResolveDefaults(t *testing.T) {
	s := resolve(t, baseEnv())

	assert.True(t, s.Debug)
	assert.Equal(t, []Contact{{Name: "Weblate Admin", Email: "admin@example.com"}}, s.Admins)
	assert.Equal(t, s.Admins, s.Managers)

	assert.Equal(t, Database{
		Engine:   "django.db.backends.postgresql",
		Name:     "weblate",
		TestName: "weblate",
		User:     "weblate",
		Password: "s3cret",
		Host:     "database",
		Port:     "5432",
	}, s.Database)

	assert.Equal(t, "UTC", s.Locale.TimeZone)
	assert.Len(t, s.Locale.Languages, 39)
	assert.True(t, s.Locale.SimplifyLanguages)
	assert.Equal(t, "Weblate", s.Site.Title)
	assert.Nil(t, s.Site.GithubUsername)
	assert.True(t, s.Site.RegistrationOpen)

	assert.Equal(t, "/app/data/media", s.Paths.MediaRoot)
	assert.Equal(t, "/app/data/static", s.Paths.StaticRoot)
	assert.Equal(t, "/media/", s.URLs.MediaURL)
	assert.Equal(t, "/accounts/login/", s.URLs.LoginURL)
	assert.Equal(t, "/accounts/profile/#auth", s.URLs.NewAssociationRedirectURL)

	assert.Equal(t, DefaultSecretKey, s.SecretKey)
	assert.Equal(t, SecretFromDefault, s.SecretSource)

	assert.Equal(t, []string{emailAuthBackend, weblateUserBackend}, s.Auth.Backends)
	assert.Nil(t, s.Auth.LDAP)
	assert.Len(t, s.Auth.Providers, len(socialProviders))

	assert.Equal(t, []string{"*"}, s.Security.AllowedHosts)
	assert.False(t, s.Security.EnableHTTPS)
	assert.False(t, s.Security.IPBehindReverseProxy)
	assert.Equal(t, 1209600, s.Security.SessionCookieAge)
	assert.Equal(t, "DENY", s.Security.XFrameOptions)

	assert.False(t, s.Access.RequireLogin)
	assert.Empty(t, s.Access.LoginRequiredURLs)

	assert.Equal(t, "server@example.com", s.Email.ServerEmail)
	assert.Equal(t, "noreply@example.com", s.Email.DefaultFromEmail)
	assert.True(t, s.Email.UseTLS)
	assert.False(t, s.Email.UseSSL)
	assert.Equal(t, "localhost", s.Email.Host)
	assert.Equal(t, 25, s.Email.Port)
	assert.Equal(t, "[Weblate] ", s.Email.SubjectPrefix)

	assert.Equal(t, defaultMachinery, s.Machinery.Services)
	assert.Equal(t, "admin@example.com", s.Machinery.MyMemoryEmail)

	assert.Nil(t, s.Rollbar)
	assert.Nil(t, s.Sentry)
	assert.Equal(t, installedApps, s.InstalledApps)
	assert.Equal(t, middleware, s.Middleware)
}

func TestResolveMissingRequiredReportsEverything(t *testing.T) {
	_, err := Resolve(env.Map{"WEBLATE_ADMIN_NAME": "x"}, testOptions(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
	assert.True(t, errors.Is(err, env.ErrMissing))

	for _, name := range []string{
		"WEBLATE_ADMIN_EMAIL", "POSTGRES_DATABASE", "POSTGRES_USER", "POSTGRES_PASSWORD",
		"POSTGRES_HOST", "POSTGRES_PORT", "WEBLATE_SERVER_EMAIL", "WEBLATE_DEFAULT_FROM_EMAIL",
	} {
		assert.Contains(t, err.Error(), name)
	}
	assert.NotContains(t, err.Error(), "WEBLATE_ADMIN_NAME")
}

func TestResolveEachRequiredVariableIsFatal(t *testing.T) {
	for name := range baseEnv() {
		t.Run(name, func(t *testing.T) {
			vars := baseEnv()
			delete(vars, name)
			_, err := Resolve(vars, testOptions(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestResolveMalformedEmailPort(t *testing.T) {
	for _, raw := range []string{"smtp", "0x19", "0o31"} {
		_, err := Resolve(with(baseEnv(), "WEBLATE_EMAIL_PORT", raw), testOptions(t))
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, env.ErrMalformed), raw)
	}
}

func TestResolveEmailPortLeadingZeros(t *testing.T) {
	for raw, want := range map[string]int{"025": 25, "0587": 587, "465": 465} {
		s := resolve(t, with(baseEnv(), "WEBLATE_EMAIL_PORT", raw))
		assert.Equal(t, want, s.Email.Port, raw)
	}
}

func TestResolveFlags(t *testing.T) {
	s := resolve(t, with(baseEnv(),
		"WEBLATE_DEBUG", "0",
		"WEBLATE_SIMPLIFY_LANGUAGES", "0",
		"WEBLATE_REGISTRATION_OPEN", "0",
		"WEBLATE_ENABLE_HTTPS", "1",
		"WEBLATE_EMAIL_USE_TLS", "0",
		"WEBLATE_EMAIL_USE_SSL", "1",
	))

	assert.False(t, s.Debug)
	assert.False(t, s.Locale.SimplifyLanguages)
	assert.False(t, s.Site.RegistrationOpen)
	assert.False(t, s.Email.UseTLS)
	assert.True(t, s.Email.UseSSL)

	sec := s.Security
	assert.True(t, sec.EnableHTTPS)
	assert.True(t, sec.SocialAuthRedirectIsHTTPS)
	assert.True(t, sec.CSRFCookieSecure)
	assert.True(t, sec.SessionCookieSecure)
	assert.True(t, sec.SecureSSLRedirect)
}

func TestResolveSiteOptions(t *testing.T) {
	s := resolve(t, with(baseEnv(),
		"WEBLATE_TIME_ZONE", "Europe/Prague",
		"WEBLATE_SITE_TITLE", "Translations",
		"WEBLATE_GITHUB_USERNAME", "weblate-bot",
		"WEBLATE_GOOGLE_ANALYTICS_ID", "UA-1",
		"WEBLATE_AKISMET_API_KEY", "akismet",
		"WEBLATE_ALLOWED_HOSTS", "weblate.example.com, www.example.com",
		"WEBLATE_IP_PROXY_HEADER", "HTTP_X_FORWARDED_FOR",
		"WEBLATE_EMAIL_HOST", "smtp.example.com",
		"WEBLATE_EMAIL_PORT", "587",
		"WEBLATE_EMAIL_USER", "legacy-user",
		"WEBLATE_EMAIL_HOST_PASSWORD", "mailpass",
	))

	assert.Equal(t, "Europe/Prague", s.Locale.TimeZone)
	assert.Equal(t, "Translations", s.Site.Title)
	assert.Equal(t, "[Translations] ", s.Email.SubjectPrefix)
	require.NotNil(t, s.Site.GithubUsername)
	assert.Equal(t, "weblate-bot", *s.Site.GithubUsername)
	assert.Equal(t, "UA-1", s.Site.GoogleAnalyticsID)
	require.NotNil(t, s.Site.AkismetAPIKey)
	assert.Equal(t, []string{"weblate.example.com", "www.example.com"}, s.Security.AllowedHosts)
	assert.True(t, s.Security.IPBehindReverseProxy)
	assert.Equal(t, "HTTP_X_FORWARDED_FOR", s.Security.IPProxyHeader)
	assert.Equal(t, "smtp.example.com", s.Email.Host)
	assert.Equal(t, 587, s.Email.Port)
	assert.Equal(t, "legacy-user", s.Email.HostUser)
	assert.Equal(t, "mailpass", s.Email.HostPassword)
}

func TestResolveEmailUserPrefersHostUser(t *testing.T) {
	s := resolve(t, with(baseEnv(),
		"WEBLATE_EMAIL_HOST_USER", "primary",
		"WEBLATE_EMAIL_USER", "legacy",
	))
	assert.Equal(t, "primary", s.Email.HostUser)
}

func TestResolveRequireLogin(t *testing.T) {
	t.Run("built-in exceptions", func(t *testing.T) {
		s := resolve(t, with(baseEnv(), "WEBLATE_REQUIRE_LOGIN", "1"))
		assert.True(t, s.Access.RequireLogin)
		assert.Equal(t, []string{`/(.*)$`}, s.Access.LoginRequiredURLs)
		assert.Equal(t, DefaultLoginExceptions(), s.Access.LoginRequiredURLsExceptions)
		assert.Len(t, s.Access.LoginRequiredURLsExceptions, 11)
	})

	t.Run("custom exceptions", func(t *testing.T) {
		s := resolve(t, with(baseEnv(),
			"WEBLATE_REQUIRE_LOGIN", "1",
			"WEBLATE_LOGIN_REQUIRED_URLS_EXCEPTIONS", `/accounts/(.*)$,/healthz/$`,
		))
		assert.Equal(t, []string{`/accounts/(.*)$`, `/healthz/$`}, s.Access.LoginRequiredURLsExceptions)
	})

	t.Run("exceptions ignored without login requirement", func(t *testing.T) {
		s := resolve(t, with(baseEnv(), "WEBLATE_LOGIN_REQUIRED_URLS_EXCEPTIONS", `/x/$`))
		assert.Empty(t, s.Access.LoginRequiredURLsExceptions)
	})
}

func TestResolveSecretKey(t *testing.T) {
	t.Run("file wins over environment", func(t *testing.T) {
		opts := testOptions(t)
		require.NoError(t, os.WriteFile(opts.SecretFile, []byte("from-file\n"), 0o600))

		s, err := Resolve(with(baseEnv(), "WEBLATE_SECRET_KEY", "from-env"), opts)
		require.NoError(t, err)
		assert.Equal(t, "from-file", s.SecretKey)
		assert.Equal(t, SecretFromFile, s.SecretSource)
	})

	t.Run("environment when file is missing", func(t *testing.T) {
		s := resolve(t, with(baseEnv(), "WEBLATE_SECRET_KEY", "from-env"))
		assert.Equal(t, "from-env", s.SecretKey)
		assert.Equal(t, SecretFromEnv, s.SecretSource)
	})
}

func TestResolveRollbar(t *testing.T) {
	s := resolve(t, with(baseEnv(), "ROLLBAR_KEY", "token"))

	require.NotNil(t, s.Rollbar)
	assert.Equal(t, "token", s.Rollbar.AccessToken)
	assert.Equal(t, "production", s.Rollbar.Environment)
	assert.Equal(t, "master", s.Rollbar.Branch)
	assert.Equal(t, DefaultBaseDir+"/weblate/", s.Rollbar.Root)
	assert.Equal(t, rollbarMiddleware, s.Middleware[len(s.Middleware)-1])
	assert.Len(t, s.Middleware, len(middleware)+1)
}

func TestResolveSentry(t *testing.T) {
	t.Run("requires version", func(t *testing.T) {
		_, err := Resolve(with(baseEnv(), "SENTRY_DSN", "https://key@sentry.example.com/1"), testOptions(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VERSION")
	})

	t.Run("configured", func(t *testing.T) {
		s := resolve(t, with(baseEnv(),
			"SENTRY_DSN", "https://key@sentry.example.com/1",
			"SENTRY_ENVIRONMENT", "staging",
			"VERSION", "3.0",
		))
		require.NotNil(t, s.Sentry)
		assert.Equal(t, "weblate-3.0", s.Sentry.Release)
		assert.Equal(t, "staging", s.Sentry.Environment)
		assert.Equal(t, 1000, s.Sentry.StringMaxLength)
		assert.Equal(t, ravenApp, s.InstalledApps[len(s.InstalledApps)-1])
	})
}

func TestResolveLogging(t *testing.T) {
	t.Run("console without syslog", func(t *testing.T) {
		s := resolve(t, with(baseEnv(), "WEBLATE_DEBUG", "0", "WEBLATE_LOGLEVEL", "INFO"))
		assert.False(t, s.Logging.HaveSyslog)
		assert.Equal(t, "console", s.Logging.DefaultHandler)
		assert.NotContains(t, s.Logging.Handlers, "syslog")
		assert.Equal(t, "INFO", s.Logging.Loggers["weblate"].Level)
		assert.Equal(t, []string{"mail_admins", "console"}, s.Logging.Loggers["django.request"].Handlers)
	})

	t.Run("syslog in production", func(t *testing.T) {
		opts := testOptions(t)
		opts.SyslogAvailable = func() bool { return true }
		s, err := Resolve(with(baseEnv(), "WEBLATE_DEBUG", "0"), opts)
		require.NoError(t, err)
		assert.Equal(t, "syslog", s.Logging.DefaultHandler)
		require.Contains(t, s.Logging.Handlers, "syslog")
		assert.Equal(t, 18, s.Logging.Handlers["syslog"].Facility)
		assert.Equal(t, "DEBUG", s.Logging.Loggers["weblate"].Level)
	})

	t.Run("debug keeps console even with syslog", func(t *testing.T) {
		opts := testOptions(t)
		opts.SyslogAvailable = func() bool { return true }
		s, err := Resolve(baseEnv(), opts)
		require.NoError(t, err)
		assert.Equal(t, "console", s.Logging.DefaultHandler)
		assert.Contains(t, s.Logging.Handlers, "syslog")
	})

	t.Run("propagation", func(t *testing.T) {
		s := resolve(t, baseEnv())
		require.NotNil(t, s.Logging.Loggers["django.server"].Propagate)
		assert.False(t, *s.Logging.Loggers["django.server"].Propagate)
		assert.Nil(t, s.Logging.Loggers["weblate"].Propagate)
	})
}

func TestSyslogAvailableMissingSocket(t *testing.T) {
	assert.False(t, SyslogAvailable(filepath.Join(t.TempDir(), "no-such-socket")))
}
