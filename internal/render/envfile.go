package render

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

// EnvValues maps s back onto the recognised environment variables. Feeding
// the result to settings.Resolve yields an equivalent tree, minus anything an
// override file changed outside the variable contract.
func EnvValues(s *settings.Settings) map[string]string {
	out := map[string]string{}
	set := func(name, value string) { out[name] = value }
	setPtr := func(name string, value *string) {
		if value != nil {
			out[name] = *value
		}
	}

	set("WEBLATE_DEBUG", flag(s.Debug))
	if len(s.Admins) > 0 {
		set("WEBLATE_ADMIN_NAME", s.Admins[0].Name)
		set("WEBLATE_ADMIN_EMAIL", s.Admins[0].Email)
	}
	set("WEBLATE_TIME_ZONE", s.Locale.TimeZone)
	set("WEBLATE_SITE_TITLE", s.Site.Title)
	setPtr("WEBLATE_GITHUB_USERNAME", s.Site.GithubUsername)
	set("WEBLATE_SIMPLIFY_LANGUAGES", flag(s.Locale.SimplifyLanguages))
	if s.Site.GoogleAnalyticsID != "" {
		set("WEBLATE_GOOGLE_ANALYTICS_ID", s.Site.GoogleAnalyticsID)
	}
	setPtr("WEBLATE_AKISMET_API_KEY", s.Site.AkismetAPIKey)
	if lg, ok := s.Logging.Loggers["weblate"]; ok {
		set("WEBLATE_LOGLEVEL", lg.Level)
	}
	if s.SecretSource != settings.SecretFromDefault && s.SecretSource != settings.SecretFromFile {
		set("WEBLATE_SECRET_KEY", s.SecretKey)
	}

	set("POSTGRES_DATABASE", s.Database.Name)
	set("POSTGRES_USER", s.Database.User)
	set("POSTGRES_PASSWORD", s.Database.Password)
	set("POSTGRES_HOST", s.Database.Host)
	set("POSTGRES_PORT", s.Database.Port)

	if s.Auth.LDAP == nil && !slices.Contains(s.Auth.Backends, "social_core.backends.email.EmailAuth") {
		set("WEBLATE_NO_EMAIL_AUTH", "1")
	}
	for _, p := range s.Auth.Providers {
		prefix := "WEBLATE_SOCIAL_AUTH_" + strings.ToUpper(p.Name)
		if p.Enabled {
			set(prefix+"_KEY", p.Key)
		}
		if p.Secret != "" {
			set(prefix+"_SECRET", p.Secret)
		}
		setPtr(prefix+"_API_URL", p.APIURL)
	}
	if l := s.Auth.LDAP; l != nil {
		set("WEBLATE_AUTH_LDAP_SERVER_URI", l.ServerURI)
		set("WEBLATE_AUTH_LDAP_USER_DN_TEMPLATE", l.UserDNTemplate)
		set("WEBLATE_AUTH_LDAP_USER_ATTR_MAP", joinMap(l.UserAttrMap))
	}

	cache := s.DefaultCache()
	switch {
	case cache.IsMemcached():
		host, port, err := net.SplitHostPort(cache.Location)
		if err == nil {
			set("MEMCACHED_HOST", host)
			set("MEMCACHED_PORT", port)
		}
	case cache.IsRedis():
		if u, err := url.Parse(cache.Location); err == nil {
			set("REDIS_HOST", u.Hostname())
			set("REDIS_PORT", u.Port())
			set("REDIS_DB", strings.TrimPrefix(u.Path, "/"))
		}
	}

	m := s.Machinery
	setPtr("WEBLATE_MT_DEEPL_KEY", m.DeepLKey)
	setPtr("WEBLATE_MT_MICROSOFT_COGNITIVE_KEY", m.MicrosoftCognitiveKey)
	setPtr("WEBLATE_MT_GOOGLE_KEY", m.GoogleKey)
	for _, svc := range m.Services {
		switch {
		case strings.HasSuffix(svc, ".MyMemoryTranslation"):
			set("WEBLATE_MT_MYMEMORY_ENABLED", "1")
		case strings.HasSuffix(svc, ".GlosbeTranslation"):
			set("WEBLATE_MT_GLOSBE_ENABLED", "1")
		}
	}

	set("WEBLATE_ALLOWED_HOSTS", strings.Join(s.Security.AllowedHosts, ","))
	set("WEBLATE_REQUIRE_LOGIN", flag(s.Access.RequireLogin))
	if s.Access.RequireLogin {
		set("WEBLATE_LOGIN_REQUIRED_URLS_EXCEPTIONS", strings.Join(s.Access.LoginRequiredURLsExceptions, ","))
	}
	set("WEBLATE_REGISTRATION_OPEN", flag(s.Site.RegistrationOpen))
	set("WEBLATE_ENABLE_HTTPS", flag(s.Security.EnableHTTPS))
	if s.Security.IPProxyHeader != "" {
		set("WEBLATE_IP_PROXY_HEADER", s.Security.IPProxyHeader)
	}

	e := s.Email
	set("WEBLATE_SERVER_EMAIL", e.ServerEmail)
	set("WEBLATE_DEFAULT_FROM_EMAIL", e.DefaultFromEmail)
	set("WEBLATE_EMAIL_HOST", e.Host)
	set("WEBLATE_EMAIL_PORT", strconv.Itoa(e.Port))
	if e.HostUser != "" {
		set("WEBLATE_EMAIL_HOST_USER", e.HostUser)
	}
	if e.HostPassword != "" {
		set("WEBLATE_EMAIL_HOST_PASSWORD", e.HostPassword)
	}
	set("WEBLATE_EMAIL_USE_TLS", flag(e.UseTLS))
	set("WEBLATE_EMAIL_USE_SSL", flag(e.UseSSL))

	if r := s.Rollbar; r != nil {
		set("ROLLBAR_KEY", r.AccessToken)
		set("ROLLBAR_ENVIRONMENT", r.Environment)
	}
	if sn := s.Sentry; sn != nil {
		set("SENTRY_DSN", sn.DSN)
		if sn.PublicDSN != "" {
			set("SENTRY_PUBLIC_DSN", sn.PublicDSN)
		}
		set("SENTRY_ENVIRONMENT", sn.Environment)
		set("VERSION", strings.TrimPrefix(sn.Release, "weblate-"))
	}
	return out
}

func renderEnv(w io.Writer, s *settings.Settings) error {
	text, err := gotenv.Marshal(gotenv.Env(EnvValues(s)))
	if err != nil {
		return fmt.Errorf("encode env: %w", err)
	}
	if _, err := io.WriteString(w, text+"\n"); err != nil {
		return fmt.Errorf("write env: %w", err)
	}
	return nil
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func joinMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + m[k]
	}
	return strings.Join(parts, ",")
}
