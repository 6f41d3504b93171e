package config

type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Security settings
	Security SecurityConfig `json:"security"`

	// SSO settings
	SSO SSOConfig `json:"sso"`

	// Logging settings
	Logging LoggingConfig `json:"logging"`

	// Dispatch settings
	Dispatch DispatchConfig `json:"dispatch"`

	// Bootstrap settings
	Bootstrap BootstrapConfig `json:"bootstrap"`
}

type ServerConfig struct {
	Host         string `json:"host" default:"localhost"`
	Port         int    `json:"port" default:"8080"`
	ReadTimeout  int    `json:"read_timeout" default:"30"`  // seconds
	WriteTimeout int    `json:"write_timeout" default:"30"` // seconds
	IdleTimeout  int    `json:"idle_timeout" default:"120"` // seconds
	GracefulStop int    `json:"graceful_stop" default:"30"` // seconds

	CORSOrigins []string `json:"cors_origins"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver" default:"sqlite"` // sqlite, postgres
	Host     string `json:"host" default:"localhost"`
	Port     int    `json:"port" default:"5432"`
	Database string `json:"database" default:"framerr.db"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode" default:"disable"`

	// Connection pool settings
	MaxOpenConns    int `json:"max_open_conns" default:"25"`
	MaxIdleConns    int `json:"max_idle_conns" default:"5"`
	ConnMaxLifetime int `json:"conn_max_lifetime" default:"300"` // seconds
}

type SecurityConfig struct {
	JWTSecret           string `json:"jwt_secret"`
	JWTExpirationHours  int    `json:"jwt_expiration_hours" default:"24"`
	SessionCookieName   string `json:"session_cookie_name" default:"framerr_session"`
	SessionCookieSecure bool   `json:"session_cookie_secure" default:"true"`

	// Rate limiting for the webhook intake
	RateLimitEnabled   bool `json:"rate_limit_enabled" default:"true"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute" default:"120"`
	RateLimitBurstSize int  `json:"rate_limit_burst_size" default:"20"`
}

type SSOConfig struct {
	// Trusted reverse-proxy header auth. Only enable behind a proxy
	// that strips these headers from client requests.
	Enabled bool `json:"enabled" default:"false"`

	// Provider names the identity service SSO logins are linked under.
	// Set it to a catalog identity service (e.g. plex) for logins to
	// feed event resolution; other values authenticate without linking.
	Provider       string `json:"provider" default:"proxy"`
	UsernameHeader string `json:"username_header" default:"Remote-User"`
	EmailHeader    string `json:"email_header" default:"Remote-Email"`
	NameHeader     string `json:"name_header" default:"Remote-Name"`
	GroupsHeader   string `json:"groups_header" default:"Remote-Groups"`
}

type LoggingConfig struct {
	Level      string `json:"level" default:"info"`    // debug, info, warn, error
	Format     string `json:"format" default:"json"`   // json, text
	Output     string `json:"output" default:"stdout"` // stdout, file
	FilePath   string `json:"file_path" default:"logs/framerr.log"`
	MaxSize    int    `json:"max_size" default:"100"` // MB
	MaxBackups int    `json:"max_backups" default:"3"`
	MaxAge     int    `json:"max_age" default:"28"` // days
	Compress   bool   `json:"compress" default:"true"`
}

type DispatchConfig struct {
	QueueSize   int `json:"queue_size" default:"1024"`
	WorkerCount int `json:"worker_count" default:"4"`
}

type BootstrapConfig struct {
	// Created on first run when no admin account exists
	AdminUsername string `json:"admin_username" default:"admin"`
	AdminPassword string `json:"admin_password"`
	AdminEmail    string `json:"admin_email"`
}
