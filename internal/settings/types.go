package settings

// Settings is the resolved Weblate configuration. Field tags define the key
// names used by override files and by every rendered format.
type Settings struct {
	Debug         bool             `yaml:"debug"`
	Admins        []Contact        `yaml:"admins"`
	Managers      []Contact        `yaml:"managers"`
	Database      Database         `yaml:"database"`
	Paths         Paths            `yaml:"paths"`
	Locale        Locale           `yaml:"locale"`
	SecretKey     string           `yaml:"secret_key"`
	Site          Site             `yaml:"site"`
	Templates     Templates        `yaml:"templates"`
	Auth          Auth             `yaml:"auth"`
	Middleware    []string         `yaml:"middleware"`
	InstalledApps []string         `yaml:"installed_apps"`
	Rollbar       *Rollbar         `yaml:"rollbar"`
	Sentry        *Sentry          `yaml:"sentry"`
	Logging       Logging          `yaml:"logging"`
	Machinery     Machinery        `yaml:"machinery"`
	Security      Security         `yaml:"security"`
	URLs          URLs             `yaml:"urls"`
	Access        Access           `yaml:"access"`
	Email         Email            `yaml:"email"`
	Caches        map[string]Cache `yaml:"caches"`
	SessionEngine string           `yaml:"session_engine"`
	Celery        Celery           `yaml:"celery"`
	REST          RESTFramework    `yaml:"rest_framework"`

	// SecretSource records where SecretKey came from. It is bookkeeping and
	// never read from override files.
	SecretSource SecretSource `yaml:"-"`
}

// Contact is a name/e-mail pair used for admins and managers.
type Contact struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Database holds the default database connection.
type Database struct {
	Engine   string `yaml:"engine"`
	Name     string `yaml:"name"`
	TestName string `yaml:"test_name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// Paths are filesystem locations derived from the data and base directories.
type Paths struct {
	BaseDir       string   `yaml:"base_dir"`
	DataDir       string   `yaml:"data_dir"`
	MediaRoot     string   `yaml:"media_root"`
	StaticRoot    string   `yaml:"static_root"`
	StaticDirs    []string `yaml:"static_dirs"`
	LocalePaths   []string `yaml:"locale_paths"`
	StaticFinders []string `yaml:"static_finders"`
}

// Language is one entry of the UI language list.
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Locale groups internationalisation settings.
type Locale struct {
	TimeZone          string     `yaml:"time_zone"`
	LanguageCode      string     `yaml:"language_code"`
	Languages         []Language `yaml:"languages"`
	UseI18N           bool       `yaml:"use_i18n"`
	UseL10N           bool       `yaml:"use_l10n"`
	UseTZ             bool       `yaml:"use_tz"`
	SimplifyLanguages bool       `yaml:"simplify_languages"`
}

// Site groups instance level options.
type Site struct {
	ID                      int     `yaml:"id"`
	Title                   string  `yaml:"title"`
	URLPrefix               string  `yaml:"url_prefix"`
	RootURLConf             string  `yaml:"root_urlconf"`
	GithubUsername          *string `yaml:"github_username"`
	RegistrationOpen        bool    `yaml:"registration_open"`
	GoogleAnalyticsID       string  `yaml:"google_analytics_id"`
	AkismetAPIKey           *string `yaml:"akismet_api_key"`
	EnableHooks             bool    `yaml:"enable_hooks"`
	NearbyMessages          int     `yaml:"nearby_messages"`
	AnonymousUserName       string  `yaml:"anonymous_user_name"`
	CrispyTemplatePack      string  `yaml:"crispy_template_pack"`
	ExceptionReporterFilter string  `yaml:"exception_reporter_filter"`
	TestRunner              string  `yaml:"test_runner"`
}

// Templates describes the single Django template engine.
type Templates struct {
	Backend           string   `yaml:"backend"`
	Dirs              []string `yaml:"dirs"`
	ContextProcessors []string `yaml:"context_processors"`
	CachedLoaders     []string `yaml:"cached_loaders"`
}

// SocialProvider is one OAuth login provider. Keys and secrets are always
// resolved; Enabled tells whether its backend is active.
type SocialProvider struct {
	Name               string   `yaml:"name"`
	Backend            string   `yaml:"backend"`
	Enabled            bool     `yaml:"enabled"`
	Key                string   `yaml:"key"`
	Secret             string   `yaml:"secret"`
	Scope              []string `yaml:"scope,omitempty"`
	APIURL             *string  `yaml:"api_url,omitempty"`
	VerifiedEmailsOnly bool     `yaml:"verified_emails_only,omitempty"`
}

// LDAP is present only when an LDAP server URI is configured.
type LDAP struct {
	ServerURI      string            `yaml:"server_uri"`
	UserDNTemplate string            `yaml:"user_dn_template"`
	UserAttrMap    map[string]string `yaml:"user_attr_map"`
}

// PasswordValidator is one AUTH_PASSWORD_VALIDATORS entry.
type PasswordValidator struct {
	Name    string         `yaml:"name"`
	Options map[string]int `yaml:"options,omitempty"`
}

// Auth groups authentication backends and the social auth pipeline.
type Auth struct {
	Backends                []string            `yaml:"backends"`
	UserModel               string              `yaml:"user_model"`
	Providers               []SocialProvider    `yaml:"providers"`
	LDAP                    *LDAP               `yaml:"ldap"`
	Pipeline                []string            `yaml:"pipeline"`
	DisconnectPipeline      []string            `yaml:"disconnect_pipeline"`
	Strategy                string              `yaml:"strategy"`
	RaiseExceptions         bool                `yaml:"raise_exceptions"`
	EmailValidationFunction string              `yaml:"email_validation_function"`
	ProtectedUserFields     []string            `yaml:"protected_user_fields"`
	SlugifyUsernames        bool                `yaml:"slugify_usernames"`
	SlugifyFunction         string              `yaml:"slugify_function"`
	PasswordValidators      []PasswordValidator `yaml:"password_validators"`
}

// Rollbar is present only when ROLLBAR_KEY is set.
type Rollbar struct {
	AccessToken       string   `yaml:"access_token"`
	Environment       string   `yaml:"environment"`
	Branch            string   `yaml:"branch"`
	Root              string   `yaml:"root"`
	IgnoredExceptions []string `yaml:"ignored_exceptions"`
}

// Sentry is present only when SENTRY_DSN is set.
type Sentry struct {
	DSN             string `yaml:"dsn"`
	PublicDSN       string `yaml:"public_dsn"`
	Environment     string `yaml:"environment"`
	Release         string `yaml:"release"`
	StringMaxLength int    `yaml:"string_max_length"`
	ListMaxLength   int    `yaml:"list_max_length"`
}

// LogFilter is a dictConfig filter built by a factory.
type LogFilter struct {
	Factory string `yaml:"factory"`
}

// LogFormatter is a dictConfig formatter.
type LogFormatter struct {
	Factory string `yaml:"factory,omitempty"`
	Format  string `yaml:"format"`
}

// LogHandler is a dictConfig handler.
type LogHandler struct {
	Level       string   `yaml:"level"`
	Class       string   `yaml:"class"`
	Formatter   string   `yaml:"formatter,omitempty"`
	Filters     []string `yaml:"filters,omitempty"`
	IncludeHTML bool     `yaml:"include_html,omitempty"`
	Address     string   `yaml:"address,omitempty"`
	Facility    int      `yaml:"facility,omitempty"`
}

// Logger is a dictConfig logger.
type Logger struct {
	Handlers  []string `yaml:"handlers"`
	Level     string   `yaml:"level"`
	Propagate *bool    `yaml:"propagate,omitempty"`
}

// Logging mirrors Python's logging.config.dictConfig schema.
type Logging struct {
	HaveSyslog             bool                    `yaml:"have_syslog"`
	DefaultHandler         string                  `yaml:"default_handler"`
	Version                int                     `yaml:"version"`
	DisableExistingLoggers bool                    `yaml:"disable_existing_loggers"`
	Filters                map[string]LogFilter    `yaml:"filters"`
	Formatters             map[string]LogFormatter `yaml:"formatters"`
	Handlers               map[string]LogHandler   `yaml:"handlers"`
	Loggers                map[string]Logger       `yaml:"loggers"`
}

// Machinery lists enabled machine translation services and their
// credentials.
type Machinery struct {
	Services              []string `yaml:"services"`
	ApertiumAPY           *string  `yaml:"apertium_apy"`
	DeepLKey              *string  `yaml:"deepl_key"`
	MicrosoftCognitiveKey *string  `yaml:"microsoft_cognitive_key"`
	MyMemoryEmail         string   `yaml:"mymemory_email"`
	MyMemoryUser          *string  `yaml:"mymemory_user"`
	MyMemoryKey           *string  `yaml:"mymemory_key"`
	GoogleKey             *string  `yaml:"google_key"`
	BaiduID               *string  `yaml:"baidu_id"`
	BaiduSecret           *string  `yaml:"baidu_secret"`
	YoudaoID              *string  `yaml:"youdao_id"`
	YoudaoSecret          *string  `yaml:"youdao_secret"`
	YandexKey             *string  `yaml:"yandex_key"`
	TMServer              *string  `yaml:"tmserver"`
	SAPBaseURL            *string  `yaml:"sap_base_url"`
	SAPSandboxAPIKey      *string  `yaml:"sap_sandbox_apikey"`
	SAPUsername           *string  `yaml:"sap_username"`
	SAPPassword           *string  `yaml:"sap_password"`
	SAPUseMT              bool     `yaml:"sap_use_mt"`
}

// Security groups HTTPS, cookie and header hardening.
type Security struct {
	EnableHTTPS               bool     `yaml:"enable_https"`
	SocialAuthRedirectIsHTTPS bool     `yaml:"social_auth_redirect_is_https"`
	CSRFCookieHTTPOnly        bool     `yaml:"csrf_cookie_httponly"`
	CSRFCookieSecure          bool     `yaml:"csrf_cookie_secure"`
	CSRFUseSessions           bool     `yaml:"csrf_use_sessions"`
	SessionCookieSecure       bool     `yaml:"session_cookie_secure"`
	SessionCookieAge          int      `yaml:"session_cookie_age"`
	SecureSSLRedirect         bool     `yaml:"secure_ssl_redirect"`
	BrowserXSSFilter          bool     `yaml:"browser_xss_filter"`
	XFrameOptions             string   `yaml:"x_frame_options"`
	ContentTypeNosniff        bool     `yaml:"content_type_nosniff"`
	HSTSSeconds               int      `yaml:"hsts_seconds"`
	HSTSPreload               bool     `yaml:"hsts_preload"`
	HSTSIncludeSubdomains     bool     `yaml:"hsts_include_subdomains"`
	AllowedHosts              []string `yaml:"allowed_hosts"`
	IPProxyHeader             string   `yaml:"ip_proxy_header"`
	IPBehindReverseProxy      bool     `yaml:"ip_behind_reverse_proxy"`
	IPProxyOffset             int      `yaml:"ip_proxy_offset"`
}

// URLs are the URL settings derived from the site prefix.
type URLs struct {
	MediaURL                  string `yaml:"media_url"`
	StaticURL                 string `yaml:"static_url"`
	LoginURL                  string `yaml:"login_url"`
	LogoutURL                 string `yaml:"logout_url"`
	LoginRedirectURL          string `yaml:"login_redirect_url"`
	EmailValidationURL        string `yaml:"email_validation_url"`
	LoginErrorURL             string `yaml:"login_error_url"`
	EmailFormURL              string `yaml:"email_form_url"`
	NewAssociationRedirectURL string `yaml:"new_association_redirect_url"`
}

// Access controls whether anonymous visitors may browse the site.
type Access struct {
	RequireLogin                bool     `yaml:"require_login"`
	LoginRequiredURLs           []string `yaml:"login_required_urls"`
	LoginRequiredURLsExceptions []string `yaml:"login_required_urls_exceptions"`
}

// Email holds outgoing mail configuration.
type Email struct {
	ServerEmail      string `yaml:"server_email"`
	DefaultFromEmail string `yaml:"default_from_email"`
	UseTLS           bool   `yaml:"use_tls"`
	UseSSL           bool   `yaml:"use_ssl"`
	Host             string `yaml:"host"`
	HostUser         string `yaml:"host_user"`
	HostPassword     string `yaml:"host_password"`
	Port             int    `yaml:"port"`
	SendHTML         bool   `yaml:"send_html"`
	SubjectPrefix    string `yaml:"subject_prefix"`
}

// Cache is one CACHES entry.
type Cache struct {
	Backend   string         `yaml:"backend"`
	Location  string         `yaml:"location"`
	Timeout   *int           `yaml:"timeout,omitempty"`
	KeyPrefix string         `yaml:"key_prefix,omitempty"`
	Options   map[string]any `yaml:"options,omitempty"`
}

// Celery holds task queue configuration.
type Celery struct {
	TaskAlwaysEager          bool   `yaml:"task_always_eager"`
	BrokerURL                string `yaml:"broker_url"`
	WorkerPrefetchMultiplier int    `yaml:"worker_prefetch_multiplier"`
	BeatScheduleFilename     string `yaml:"beat_schedule_filename"`
}

// RESTFramework is the Django REST framework configuration.
type RESTFramework struct {
	PermissionClasses       []string          `yaml:"permission_classes"`
	AuthenticationClasses   []string          `yaml:"authentication_classes"`
	ThrottleClasses         []string          `yaml:"throttle_classes"`
	ThrottleRates           map[string]string `yaml:"throttle_rates"`
	PaginationClass         string            `yaml:"pagination_class"`
	PageSize                int               `yaml:"page_size"`
	ViewDescriptionFunction string            `yaml:"view_description_function"`
	UnauthenticatedUser     string            `yaml:"unauthenticated_user"`
}

// SecretSource tells where the secret key was taken from.
type SecretSource string

const (
	SecretFromFile     SecretSource = "file"
	SecretFromEnv      SecretSource = "environment"
	SecretFromDefault  SecretSource = "default"
	SecretFromOverride SecretSource = "override"
)
