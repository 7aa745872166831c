// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // league timezone must resolve on minimal images

	"github.com/joho/godotenv"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string        // e.g. "8080"
	BackofficePort       string        // e.g. "8081"
	Env                  string        // "development" | "production"
	ReadTimeout          time.Duration // default 10s
	WriteTimeout         time.Duration // default 10s
	BackofficeAllowedIPs string        // comma-separated IPs; "" = allow all
	WSAllowedOrigins     []string      // empty = same-origin only in production
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
	NotifyChannel   string        // LISTEN/NOTIFY channel for cross-process events
}

// JWTConfig holds JWT signing settings.
type JWTConfig struct {
	AccessSecret  string        // must be set
	RefreshSecret string        // must be set
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 720h (30 days)
}

// LeagueConfig holds the rules every week is created with.
type LeagueConfig struct {
	DefaultStakeCents int64          // default 1000 ($10.00)
	Timezone          string         // default "America/New_York"
	Location          *time.Location // resolved from Timezone
	LockWeekday       time.Weekday   // default Sunday
	LockHour          int            // default 12, local to Location
	Currency          string         // display only, default "USD"
}

// OddsConfig holds odds provider settings.
type OddsConfig struct {
	Enabled            bool          // false when ODDS_API_KEY is empty
	BaseURL            string        // default "https://api.the-odds-api.com"
	APIKey             string
	Sports             []string      // provider sport keys
	Markets            string        // comma-separated, e.g. "h2h,spreads,totals"
	Regions            string        // default "us"
	PreferredBookmaker string        // default "draftkings"
	FetchTimeout       time.Duration // per-request, default 10s
	RefreshCron        string        // robfig/cron spec, default "@every 30m"
	RefreshOnStart     bool          // run one refresh at boot
	CacheMaxAge        time.Duration // rows older than this are purged, default 6h
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	League LeagueConfig
	Odds   OddsConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	// JWT secrets are mandatory
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must be set"))
	}
	if c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must be set"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	// In production, DB DSN must be explicit
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if c.League.DefaultStakeCents <= 0 {
		errs = append(errs, fmt.Errorf(
			"LEAGUE_DEFAULT_STAKE_CENTS must be positive, got %d", c.League.DefaultStakeCents,
		))
	}
	if c.League.Location == nil {
		errs = append(errs, fmt.Errorf("LEAGUE_TIMEZONE %q is not a known location", c.League.Timezone))
	}
	if c.League.LockHour < 0 || c.League.LockHour > 23 {
		errs = append(errs, fmt.Errorf("LEAGUE_LOCK_HOUR must be 0-23, got %d", c.League.LockHour))
	}

	if c.Odds.Enabled {
		if len(c.Odds.Sports) == 0 {
			errs = append(errs, errors.New("ODDS_SPORTS must list at least one sport"))
		}
		if c.Odds.RefreshCron == "" {
			errs = append(errs, errors.New("ODDS_REFRESH_CRON must be set when odds are enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
// Panics if loading fails. Call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("config: .env not loaded", "err", err)
		}
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:                 getEnv("SERVER_PORT", "8080"),
		BackofficePort:       getEnv("BACKOFFICE_PORT", "8081"),
		Env:                  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:          getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BackofficeAllowedIPs: getEnv("BACKOFFICE_ALLOWED_IPS", ""),
		WSAllowedOrigins:     getList("WS_ALLOWED_ORIGINS", nil),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "group_parlay"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		NotifyChannel:   getEnv("DB_NOTIFY_CHANNEL", "parlay_events"),
	}

	// ── JWT ───────────────────────────────────────────────────────────────────
	cfg.JWT = JWTConfig{
		AccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		AccessTTL:     getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getDuration("JWT_REFRESH_TTL", 30*24*time.Hour),
	}

	// ── League ────────────────────────────────────────────────────────────────
	stake, err := getInt("LEAGUE_DEFAULT_STAKE_CENTS", 1000)
	if err != nil {
		return nil, fmt.Errorf("LEAGUE_DEFAULT_STAKE_CENTS: %w", err)
	}
	lockHour, err := getInt("LEAGUE_LOCK_HOUR", 12)
	if err != nil {
		return nil, fmt.Errorf("LEAGUE_LOCK_HOUR: %w", err)
	}
	weekday, err := getWeekday("LEAGUE_LOCK_WEEKDAY", time.Sunday)
	if err != nil {
		return nil, fmt.Errorf("LEAGUE_LOCK_WEEKDAY: %w", err)
	}
	tz := getEnv("LEAGUE_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		// Reported by Validate alongside everything else.
		loc = nil
	}

	cfg.League = LeagueConfig{
		DefaultStakeCents: int64(stake),
		Timezone:          tz,
		Location:          loc,
		LockWeekday:       weekday,
		LockHour:          lockHour,
		Currency:          getEnv("LEAGUE_CURRENCY", "USD"),
	}

	// ── Odds provider ─────────────────────────────────────────────────────────
	apiKey := getEnv("ODDS_API_KEY", "")
	cfg.Odds = OddsConfig{
		Enabled:            apiKey != "",
		BaseURL:            strings.TrimRight(getEnv("ODDS_BASE_URL", "https://api.the-odds-api.com"), "/"),
		APIKey:             apiKey,
		Sports:             getList("ODDS_SPORTS", []string{"americanfootball_nfl", "americanfootball_nfl_preseason"}),
		Markets:            getEnv("ODDS_MARKETS", "h2h,spreads,totals"),
		Regions:            getEnv("ODDS_REGIONS", "us"),
		PreferredBookmaker: getEnv("ODDS_PREFERRED_BOOKMAKER", "draftkings"),
		FetchTimeout:       getDuration("ODDS_FETCH_TIMEOUT", 10*time.Second),
		RefreshCron:        getEnv("ODDS_REFRESH_CRON", "@every 30m"),
		RefreshOnStart:     getBool("ODDS_REFRESH_ON_START", true),
		CacheMaxAge:        getDuration("ODDS_CACHE_MAX_AGE", 6*time.Hour),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getList splits a comma-separated env var, dropping empty entries.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func getWeekday(key string, defaultVal time.Weekday) (time.Weekday, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(v))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", v)
	}
	return d, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Log warning and fall back to default; do not crash on parse error
		slog.Warn("config: invalid duration, using default", "key", key, "value", v, "default", defaultVal)
		return defaultVal
	}
	return d
}
