package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/getsentry/sentry-go"
)

// Severity ranks lint findings.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a non-fatal observation about resolved settings.
type Finding struct {
	Severity Severity `yaml:"severity" json:"severity"`
	Setting  string   `yaml:"setting" json:"setting"`
	Message  string   `yaml:"message" json:"message"`
}

// Lint reports settings that resolve fine but are likely mistakes.
func (s *Settings) Lint() []Finding {
	var out []Finding
	add := func(sev Severity, setting, format string, args ...any) {
		out = append(out, Finding{Severity: sev, Setting: setting, Message: fmt.Sprintf(format, args...)})
	}

	if s.SecretKey == DefaultSecretKey {
		add(SeverityWarning, "SECRET_KEY", "built-in secret key is in use; set WEBLATE_SECRET_KEY or create %s/secret", s.Paths.DataDir)
	}
	if s.SecretKey == "" {
		add(SeverityWarning, "SECRET_KEY", "secret key is empty")
	}
	if s.Debug {
		add(SeverityInfo, "DEBUG", "debug mode is on; set WEBLATE_DEBUG=0 in production")
	}
	if s.Email.UseTLS && s.Email.UseSSL {
		add(SeverityWarning, "EMAIL_USE_TLS", "EMAIL_USE_TLS and EMAIL_USE_SSL are mutually exclusive")
	}
	if s.Security.EnableHTTPS && slices.Contains(s.Security.AllowedHosts, "*") {
		add(SeverityInfo, "ALLOWED_HOSTS", "HTTPS is enabled but any host name is accepted")
	}
	if len(s.Security.AllowedHosts) == 0 {
		add(SeverityWarning, "ALLOWED_HOSTS", "no host is allowed, every request will be rejected")
	}
	for _, p := range s.Auth.Providers {
		if p.Enabled && p.Secret == "" {
			add(SeverityWarning, socialSettingName(p.Name, "SECRET"), "%s login is enabled without a secret", p.Name)
		}
	}
	if s.Auth.LDAP != nil && s.Auth.LDAP.ServerURI == "" {
		add(SeverityWarning, "AUTH_LDAP_SERVER_URI", "LDAP backend is enabled with an empty server URI")
	}
	if s.Sentry != nil {
		if _, err := sentry.NewDsn(s.Sentry.DSN); err != nil {
			add(SeverityWarning, "RAVEN_CONFIG", "SENTRY_DSN is not a valid DSN: %v", err)
		}
	}
	if s.Machinery.DeepLKey != nil && *s.Machinery.DeepLKey == "" {
		add(SeverityInfo, "MT_DEEPL_KEY", "WEBLATE_MT_DEEPL_KEY is set but empty, DeepL stays disabled")
	}
	return out
}

func socialSettingName(provider, suffix string) string {
	return "SOCIAL_AUTH_" + strings.ToUpper(provider) + "_" + suffix
}
