package settings

const (
	// DefaultDataDir is the persistent volume of the Weblate container.
	DefaultDataDir = "/app/data"
	// DefaultBaseDir is where the weblate Python package is installed.
	DefaultBaseDir = "/usr/local/lib/python3.5/dist-packages"

	// DefaultSecretKey is shipped with the image and must be replaced in
	// production.
	DefaultSecretKey = "jm8fqjlg+5!#xu%e-oh#7!$aa7!6avf7ud*_v=chdrb9qdco6("

	databaseEngine = "django.db.backends.postgresql"

	emailAuthBackend   = "social_core.backends.email.EmailAuth"
	ldapAuthBackend    = "django_auth_ldap.backend.LDAPBackend"
	weblateUserBackend = "weblate.accounts.auth.WeblateUserBackend"

	defaultLDAPUserDNTemplate = "cn=%(user)s,o=Example"

	memcachedBackend = "django.core.cache.backends.memcached.MemcachedCache"
	redisBackend     = "django_redis.cache.RedisCache"
	fileCacheBackend = "django.core.cache.backends.filebased.FileBasedCache"

	cacheKeyPrefix = "weblate"

	rollbarMiddleware = "rollbar.contrib.django.middleware.RollbarNotifierMiddleware"
	ravenApp          = "raven.contrib.django.raven_compat"

	// syslogFacilityLocal2 is SysLogHandler.LOG_LOCAL2.
	syslogFacilityLocal2 = 18

	sessionCookieAge = 1209600
	avatarCacheTTL   = 604800
)

var languages = []Language{
	{"ar", "العربية"},
	{"az", "Azərbaycan"},
	{"be", "Беларуская"},
	{"be@latin", "Biełaruskaja"},
	{"bg", "Български"},
	{"br", "Brezhoneg"},
	{"ca", "Català"},
	{"cs", "Čeština"},
	{"da", "Dansk"},
	{"de", "Deutsch"},
	{"en", "English"},
	{"en-gb", "English (United Kingdom)"},
	{"el", "Ελληνικά"},
	{"es", "Español"},
	{"fi", "Suomi"},
	{"fr", "Français"},
	{"fy", "Frysk"},
	{"gl", "Galego"},
	{"he", "עברית"},
	{"hu", "Magyar"},
	{"id", "Indonesia"},
	{"it", "Italiano"},
	{"ja", "日本語"},
	{"ko", "한국어"},
	{"ksh", "Kölsch"},
	{"nb", "Norsk bokmål"},
	{"nl", "Nederlands"},
	{"pl", "Polski"},
	{"pt", "Português"},
	{"pt-br", "Português brasileiro"},
	{"ru", "Русский"},
	{"sk", "Slovenčina"},
	{"sl", "Slovenščina"},
	{"sr", "Српски"},
	{"sv", "Svenska"},
	{"tr", "Türkçe"},
	{"uk", "Українська"},
	{"zh-hans", "简体字"},
	{"zh-hant", "正體字"},
}

var staticFinders = []string{
	"django.contrib.staticfiles.finders.FileSystemFinder",
	"django.contrib.staticfiles.finders.AppDirectoriesFinder",
	"compressor.finders.CompressorFinder",
}

var contextProcessors = []string{
	"django.contrib.auth.context_processors.auth",
	"django.template.context_processors.debug",
	"django.template.context_processors.i18n",
	"django.template.context_processors.request",
	"django.template.context_processors.csrf",
	"django.contrib.messages.context_processors.messages",
	"weblate.trans.context_processors.weblate_context",
}

var cachedLoaders = []string{
	"django.template.loaders.filesystem.Loader",
	"django.template.loaders.app_directories.Loader",
}

var socialAuthPipeline = []string{
	"social_core.pipeline.social_auth.social_details",
	"social_core.pipeline.social_auth.social_uid",
	"social_core.pipeline.social_auth.auth_allowed",
	"social_core.pipeline.social_auth.social_user",
	"weblate.accounts.pipeline.store_params",
	"weblate.accounts.pipeline.verify_open",
	"social_core.pipeline.user.get_username",
	"weblate.accounts.pipeline.require_email",
	"social_core.pipeline.mail.mail_validation",
	"weblate.accounts.pipeline.revoke_mail_code",
	"weblate.accounts.pipeline.ensure_valid",
	"weblate.accounts.pipeline.remove_account",
	"social_core.pipeline.social_auth.associate_by_email",
	"weblate.accounts.pipeline.reauthenticate",
	"weblate.accounts.pipeline.verify_username",
	"social_core.pipeline.user.create_user",
	"social_core.pipeline.social_auth.associate_user",
	"social_core.pipeline.social_auth.load_extra_data",
	"weblate.accounts.pipeline.cleanup_next",
	"weblate.accounts.pipeline.user_full_name",
	"weblate.accounts.pipeline.store_email",
	"weblate.accounts.pipeline.notify_connect",
	"weblate.accounts.pipeline.password_reset",
}

var socialAuthDisconnectPipeline = []string{
	"social_core.pipeline.disconnect.allowed_to_disconnect",
	"social_core.pipeline.disconnect.get_entries",
	"social_core.pipeline.disconnect.revoke_tokens",
	"weblate.accounts.pipeline.cycle_session",
	"weblate.accounts.pipeline.adjust_primary_mail",
	"weblate.accounts.pipeline.notify_disconnect",
	"social_core.pipeline.disconnect.disconnect",
	"weblate.accounts.pipeline.cleanup_next",
}

var middleware = []string{
	"django.middleware.security.SecurityMiddleware",
	"django.contrib.sessions.middleware.SessionMiddleware",
	"django.middleware.common.CommonMiddleware",
	"django.middleware.locale.LocaleMiddleware",
	"django.middleware.csrf.CsrfViewMiddleware",
	"weblate.accounts.middleware.AuthenticationMiddleware",
	"django.contrib.messages.middleware.MessageMiddleware",
	"django.middleware.clickjacking.XFrameOptionsMiddleware",
	"social_django.middleware.SocialAuthExceptionMiddleware",
	"weblate.accounts.middleware.RequireLoginMiddleware",
	"weblate.middleware.SecurityMiddleware",
}

var installedApps = []string{
	"django.contrib.auth",
	"django.contrib.contenttypes",
	"django.contrib.sessions",
	"django.contrib.sites",
	"django.contrib.messages",
	"django.contrib.staticfiles",
	"django.contrib.admin.apps.SimpleAdminConfig",
	"django.contrib.admindocs",
	"django.contrib.sitemaps",
	"social_django",
	"crispy_forms",
	"compressor",
	"rest_framework",
	"rest_framework.authtoken",
	"weblate.addons",
	"weblate.auth",
	"weblate.checks",
	"weblate.formats",
	"weblate.machinery",
	"weblate.trans",
	"weblate.lang",
	"weblate.langdata",
	"weblate.memory",
	"weblate.screenshots",
	"weblate.accounts",
	"weblate.utils",
	"weblate.vcs",
	"weblate.wladmin",
	"weblate",
	"weblate.gitexport",
}

var defaultMachinery = []string{
	"weblate.machinery.weblatetm.WeblateTranslation",
	"weblate.memory.machine.WeblateMemory",
}

// defaultLoginExceptions keep login, static assets, widgets, exports, hooks,
// health checks, the API and legal pages reachable without a session.
var defaultLoginExceptions = []string{
	`/accounts/(.*)$`,
	`/admin/login/(.*)$`,
	`/static/(.*)$`,
	`/widgets/(.*)$`,
	`/data/(.*)$`,
	`/hooks/(.*)$`,
	`/healthz/$`,
	`/api/(.*)$`,
	`/js/i18n/$`,
	`/contact/$`,
	`/legal/(.*)$`,
}

func passwordValidators() []PasswordValidator {
	return []PasswordValidator{
		{Name: "django.contrib.auth.password_validation.UserAttributeSimilarityValidator"},
		{Name: "django.contrib.auth.password_validation.MinimumLengthValidator", Options: map[string]int{"min_length": 6}},
		{Name: "django.contrib.auth.password_validation.CommonPasswordValidator"},
		{Name: "django.contrib.auth.password_validation.NumericPasswordValidator"},
		{Name: "weblate.accounts.password_validation.CharsPasswordValidator"},
		{Name: "weblate.accounts.password_validation.PastPasswordsValidator"},
	}
}

func restFramework() RESTFramework {
	return RESTFramework{
		PermissionClasses: []string{"rest_framework.permissions.IsAuthenticatedOrReadOnly"},
		AuthenticationClasses: []string{
			"rest_framework.authentication.TokenAuthentication",
			"weblate.api.authentication.BearerAuthentication",
			"rest_framework.authentication.SessionAuthentication",
		},
		ThrottleClasses: []string{
			"rest_framework.throttling.AnonRateThrottle",
			"rest_framework.throttling.UserRateThrottle",
		},
		ThrottleRates:           map[string]string{"anon": "100/day", "user": "1000/day"},
		PaginationClass:         "rest_framework.pagination.PageNumberPagination",
		PageSize:                20,
		ViewDescriptionFunction: "weblate.api.views.get_view_description",
		UnauthenticatedUser:     "weblate.auth.models.get_anonymous",
	}
}

// Languages returns a copy of the UI language table.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// DefaultLoginExceptions returns a copy of the built-in URL patterns that
// stay public when login is required.
func DefaultLoginExceptions() []string {
	return clone(defaultLoginExceptions)
}

func clone(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
