package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	MigrateOnStart bool

	// RedisAddr enables the Redis revocation backend when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// StaticDir, when set, is served at / (the front-end bundle).
	StaticDir string

	// CORS policy for browser clients. The default "*" mirrors the
	// permissive policy the original deployment shipped with.
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, GEOTRACK_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) so revocation
	// keys are HMAC digests rather than plain SHA-256.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("GEOTRACK_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("GEOTRACK_LOG_LEVEL", "info"),
		LogFormat: EnvString("GEOTRACK_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("GEOTRACK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("GEOTRACK_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("GEOTRACK_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("GEOTRACK_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("GEOTRACK_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:    EnvString("GEOTRACK_DATABASE_URL", ""),
		DBMaxConns:     EnvInt32("GEOTRACK_DB_MAX_CONNS", 10),
		DBMinConns:     EnvInt32("GEOTRACK_DB_MIN_CONNS", 0),
		MigrateOnStart: EnvBool("GEOTRACK_DB_MIGRATE", true),

		RedisAddr:     EnvString("GEOTRACK_REDIS_ADDR", ""),
		RedisPassword: EnvString("GEOTRACK_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("GEOTRACK_REDIS_DB", 0),

		StaticDir: EnvString("GEOTRACK_STATIC_DIR", ""),

		CORSAllowedOrigins:   EnvCSV("GEOTRACK_CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowCredentials: EnvBool("GEOTRACK_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("GEOTRACK_CORS_MAX_AGE_SECONDS", 600),

		ReadinessRequireDB: EnvBool("GEOTRACK_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("GEOTRACK_REQUIRE_TOKEN_HMAC", false),
	}
}
