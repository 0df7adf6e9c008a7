package settings

import (
	"sort"
	"strings"
)

// Variable documents one recognised environment variable.
type Variable struct {
	Name        string `yaml:"name" json:"name"`
	Group       string `yaml:"group" json:"group"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Secret      bool   `yaml:"secret,omitempty" json:"secret,omitempty"`
	Description string `yaml:"description" json:"description"`
}

var variables = []Variable{
	{Name: "WEBLATE_DEBUG", Group: "site", Default: "1", Description: "debug mode, 1 enables"},
	{Name: "WEBLATE_ADMIN_NAME", Group: "site", Required: true, Description: "admin and manager name"},
	{Name: "WEBLATE_ADMIN_EMAIL", Group: "site", Required: true, Description: "admin and manager e-mail, also the MyMemory identity"},
	{Name: "WEBLATE_TIME_ZONE", Group: "site", Default: "UTC", Description: "time zone of the installation"},
	{Name: "WEBLATE_SITE_TITLE", Group: "site", Default: "Weblate", Description: "site title, also used as e-mail subject prefix"},
	{Name: "WEBLATE_GITHUB_USERNAME", Group: "site", Description: "GitHub user for sending pull requests"},
	{Name: "WEBLATE_SIMPLIFY_LANGUAGES", Group: "site", Default: "1", Description: "use simple language codes for default country combinations"},
	{Name: "WEBLATE_GOOGLE_ANALYTICS_ID", Group: "site", Description: "Google Analytics property"},
	{Name: "WEBLATE_AKISMET_API_KEY", Group: "site", Secret: true, Description: "Akismet spam protection key"},
	{Name: "WEBLATE_LOGLEVEL", Group: "site", Default: "DEBUG", Description: "level of the weblate logger"},
	{Name: "WEBLATE_SECRET_KEY", Group: "site", Secret: true, Description: "signing key, used when the data dir has no secret file"},

	{Name: "POSTGRES_DATABASE", Group: "database", Required: true, Description: "database name, also used for tests"},
	{Name: "POSTGRES_USER", Group: "database", Required: true, Description: "database user"},
	{Name: "POSTGRES_PASSWORD", Group: "database", Required: true, Secret: true, Description: "database password"},
	{Name: "POSTGRES_HOST", Group: "database", Required: true, Description: "database host"},
	{Name: "POSTGRES_PORT", Group: "database", Required: true, Description: "database port"},

	{Name: "WEBLATE_NO_EMAIL_AUTH", Group: "auth", Description: "presence disables e-mail authentication"},
	{Name: "WEBLATE_SOCIAL_AUTH_GITLAB_API_URL", Group: "auth", Description: "GitLab API URL for self-hosted GitLab"},
	{Name: "WEBLATE_AUTH_LDAP_SERVER_URI", Group: "auth", Description: "enables LDAP authentication"},
	{Name: "WEBLATE_AUTH_LDAP_USER_DN_TEMPLATE", Group: "auth", Default: defaultLDAPUserDNTemplate, Description: "LDAP bind DN template"},
	{Name: "WEBLATE_AUTH_LDAP_USER_ATTR_MAP", Group: "auth", Default: "full_name:name,email:mail", Description: "LDAP attribute mapping"},

	{Name: "MEMCACHED_HOST", Group: "cache", Description: "selects memcached cache and eager tasks"},
	{Name: "MEMCACHED_PORT", Group: "cache", Default: "11211", Description: "memcached port"},
	{Name: "REDIS_HOST", Group: "cache", Default: "cache", Description: "redis host for cache and task broker"},
	{Name: "REDIS_PORT", Group: "cache", Default: "6379", Description: "redis port"},
	{Name: "REDIS_DB", Group: "cache", Default: "1", Description: "redis database number"},

	{Name: "WEBLATE_MT_DEEPL_KEY", Group: "machinery", Secret: true, Description: "non-empty value enables DeepL"},
	{Name: "WEBLATE_MT_MICROSOFT_COGNITIVE_KEY", Group: "machinery", Secret: true, Description: "enables Microsoft Cognitive Services Translator"},
	{Name: "WEBLATE_MT_MYMEMORY_ENABLED", Group: "machinery", Description: "presence enables MyMemory"},
	{Name: "WEBLATE_MT_GLOSBE_ENABLED", Group: "machinery", Description: "presence enables Glosbe"},
	{Name: "WEBLATE_MT_GOOGLE_KEY", Group: "machinery", Secret: true, Description: "enables Google Translate"},

	{Name: "WEBLATE_ALLOWED_HOSTS", Group: "access", Default: "*", Description: "comma separated host names the site answers to"},
	{Name: "WEBLATE_REQUIRE_LOGIN", Group: "access", Default: "0", Description: "1 restricts the whole site to signed in users"},
	{Name: "WEBLATE_LOGIN_REQUIRED_URLS_EXCEPTIONS", Group: "access", Description: "comma separated URL patterns reachable without login"},
	{Name: "WEBLATE_REGISTRATION_OPEN", Group: "access", Default: "1", Description: "1 allows new registrations"},
	{Name: "WEBLATE_ENABLE_HTTPS", Group: "access", Default: "0", Description: "1 marks cookies secure and redirects to HTTPS"},
	{Name: "WEBLATE_IP_PROXY_HEADER", Group: "access", Description: "header carrying the client address behind a proxy"},

	{Name: "WEBLATE_SERVER_EMAIL", Group: "email", Required: true, Description: "sender of error messages"},
	{Name: "WEBLATE_DEFAULT_FROM_EMAIL", Group: "email", Required: true, Description: "sender of automated mail"},
	{Name: "WEBLATE_EMAIL_HOST", Group: "email", Default: "localhost", Description: "SMTP host"},
	{Name: "WEBLATE_EMAIL_PORT", Group: "email", Default: "25", Description: "SMTP port"},
	{Name: "WEBLATE_EMAIL_HOST_USER", Group: "email", Description: "SMTP user, falls back to WEBLATE_EMAIL_USER"},
	{Name: "WEBLATE_EMAIL_USER", Group: "email", Description: "legacy name of WEBLATE_EMAIL_HOST_USER"},
	{Name: "WEBLATE_EMAIL_HOST_PASSWORD", Group: "email", Secret: true, Description: "SMTP password, falls back to WEBLATE_EMAIL_PASSWORD"},
	{Name: "WEBLATE_EMAIL_PASSWORD", Group: "email", Secret: true, Description: "legacy name of WEBLATE_EMAIL_HOST_PASSWORD"},
	{Name: "WEBLATE_EMAIL_USE_TLS", Group: "email", Default: "1", Description: "1 uses STARTTLS"},
	{Name: "WEBLATE_EMAIL_USE_SSL", Group: "email", Default: "0", Description: "1 uses implicit TLS"},

	{Name: "ROLLBAR_KEY", Group: "monitoring", Secret: true, Description: "enables Rollbar error reporting"},
	{Name: "ROLLBAR_ENVIRONMENT", Group: "monitoring", Default: "production", Description: "Rollbar environment"},
	{Name: "SENTRY_DSN", Group: "monitoring", Secret: true, Description: "enables Sentry error reporting"},
	{Name: "SENTRY_PUBLIC_DSN", Group: "monitoring", Description: "public DSN for browser reporting"},
	{Name: "SENTRY_ENVIRONMENT", Group: "monitoring", Default: "production", Description: "Sentry environment"},
	{Name: "VERSION", Group: "monitoring", Description: "Weblate version, required when SENTRY_DSN is set"},
}

// Variables returns every recognised environment variable sorted by group
// and name.
func Variables() []Variable {
	out := make([]Variable, 0, len(variables)+2*len(socialProviders))
	out = append(out, variables...)
	for _, p := range socialProviders {
		prefix := socialEnvPrefix(p.name)
		out = append(out,
			Variable{Name: prefix + "_KEY", Group: "auth", Description: "enables " + p.name + " login"},
			Variable{Name: prefix + "_SECRET", Group: "auth", Secret: true, Description: p.name + " OAuth secret"},
		)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// IsSecretVariable reports whether name holds a credential.
func IsSecretVariable(name string) bool {
	if strings.HasPrefix(name, "WEBLATE_SOCIAL_AUTH_") && strings.HasSuffix(name, "_SECRET") {
		return true
	}
	for _, v := range variables {
		if v.Name == name {
			return v.Secret
		}
	}
	return false
}
