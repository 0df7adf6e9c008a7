package settings

import (
	"strings"

	"github.com/eugenenazirov/weblate-settings/internal/env"
)

type providerSpec struct {
	name               string
	backend            string
	scope              []string
	verifiedEmailsOnly bool
	apiURL             bool
}

// socialProviders is ordered; enabled backends are appended in this order.
var socialProviders = []providerSpec{
	{name: "github", backend: "social_core.backends.github.GithubOAuth2", scope: []string{"user:email"}},
	{name: "bitbucket", backend: "social_core.backends.bitbucket.BitbucketOAuth", verifiedEmailsOnly: true},
	{name: "facebook", backend: "social_core.backends.facebook.FacebookOAuth2", scope: []string{"email", "public_profile"}},
	{name: "google_oauth2", backend: "social_core.backends.google.GoogleOAuth2"},
	{name: "gitlab", backend: "social_core.backends.gitlab.GitLabOAuth2", scope: []string{"api"}, apiURL: true},
	{name: "azuread_oauth2", backend: "social_core.backends.azuread.AzureADOAuth2"},
}

func socialEnvPrefix(provider string) string {
	return "WEBLATE_SOCIAL_AUTH_" + strings.ToUpper(provider)
}

func resolveAuth(r *env.Reader) Auth {
	var backends []string
	if !r.Has("WEBLATE_NO_EMAIL_AUTH") {
		backends = append(backends, emailAuthBackend)
	}

	providers := make([]SocialProvider, 0, len(socialProviders))
	for _, spec := range socialProviders {
		prefix := socialEnvPrefix(spec.name)
		p := SocialProvider{
			Name:               spec.name,
			Backend:            spec.backend,
			Enabled:            r.Has(prefix + "_KEY"),
			Key:                r.String(prefix+"_KEY", ""),
			Secret:             r.String(prefix+"_SECRET", ""),
			Scope:              clone(spec.scope),
			VerifiedEmailsOnly: spec.verifiedEmailsOnly,
		}
		if spec.apiURL {
			p.APIURL = r.Optional(prefix + "_API_URL")
		}
		if p.Enabled {
			backends = append(backends, spec.backend)
		}
		providers = append(providers, p)
	}

	var ldap *LDAP
	if r.Has("WEBLATE_AUTH_LDAP_SERVER_URI") {
		ldap = &LDAP{
			ServerURI:      r.String("WEBLATE_AUTH_LDAP_SERVER_URI", ""),
			UserDNTemplate: r.String("WEBLATE_AUTH_LDAP_USER_DN_TEMPLATE", defaultLDAPUserDNTemplate),
			UserAttrMap: r.Map("WEBLATE_AUTH_LDAP_USER_ATTR_MAP", map[string]string{
				"full_name": "name",
				"email":     "mail",
			}),
		}
		// LDAP replaces every backend selected so far.
		backends = []string{ldapAuthBackend, weblateUserBackend}
	}

	backends = append(backends, weblateUserBackend)

	return Auth{
		Backends:                backends,
		UserModel:               "weblate_auth.User",
		Providers:               providers,
		LDAP:                    ldap,
		Pipeline:                clone(socialAuthPipeline),
		DisconnectPipeline:      clone(socialAuthDisconnectPipeline),
		Strategy:                "weblate.accounts.strategy.WeblateStrategy",
		RaiseExceptions:         true,
		EmailValidationFunction: "weblate.accounts.pipeline.send_validation",
		ProtectedUserFields:     []string{"email"},
		SlugifyUsernames:        true,
		SlugifyFunction:         "weblate.accounts.pipeline.slugify_username",
		PasswordValidators:      passwordValidators(),
	}
}

// Provider returns the named social provider.
func (a Auth) Provider(name string) (SocialProvider, bool) {
	for _, p := range a.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return SocialProvider{}, false
}
