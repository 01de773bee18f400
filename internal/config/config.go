package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Role names used as keys of the per-role maps below.
const (
	RoleManager = "manager"
	RoleUser    = "user"
)

// EnvDevelopment relaxes cookie security and pins the cookie domain to localhost.
const EnvDevelopment = "development"

// Development-only token secrets. Validate rejects them outside development.
const (
	devAccessTokenSecret = "dev_access_secret_change_me"
	devRoleTokenSecret   = "dev_role_secret_change_me"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig      `json:"app"`
	MySQL    MySQLConfig    `json:"mysql"`
	Redis    RedisConfig    `json:"redis"`
	Email    EmailConfig    `json:"email"`
	Security SecurityConfig `json:"security"`
	Cookie   CookieConfig   `json:"cookie"`
}

// AppConfig holds the basic runtime settings.
type AppConfig struct {
	Env                string        `json:"env"`                  // development / production
	LogLevel           string        `json:"log_level"`            // debug / info / warn / error
	HTTPAddr           string        `json:"http_addr"`            // API listen address
	ClientURL          string        `json:"client_url"`           // base URL of the reset-password page
	OTPTTL             time.Duration `json:"otp_ttl"`              // OTP lifetime (e.g. "10m")
	OTPRateLimit       float64       `json:"otp_rate_limit"`       // OTP requests per second per email
	OTPRateBurst       float64       `json:"otp_rate_burst"`       // OTP bucket capacity
	ProblemDedupWindow int           `json:"problem_dedup_window"` // duplicate problem link window (seconds)
	MinPasswordLength  int           `json:"min_password_length"`  // minimum new password length
}

// MySQLConfig holds the database settings.
type MySQLConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig holds the redis settings.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
}

// EmailConfig holds the SMTP settings.
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	SMTPUser  string `json:"smtp_user"`
	SMTPPass  string `json:"smtp_pass"`
	FromEmail string `json:"from_email"`
}

// SecurityConfig holds token secrets and the per-role token decorations.
type SecurityConfig struct {
	AccessTokenSecret     string            `json:"access_token_secret"`
	AccessTokenTTL        time.Duration     `json:"access_token_ttl"`
	RoleTokenSecret       string            `json:"role_token_secret"`
	RoleTokenTTL          time.Duration     `json:"role_token_ttl"`
	RoleSuffixes          map[string]string `json:"role_suffixes"`   // role -> suffix appended to the role token
	CookiePrefixes        map[string]string `json:"cookie_prefixes"` // role -> role-token cookie name prefix
	BcryptCost            int               `json:"bcrypt_cost"`
	BootstrapManagerEmail string            `json:"bootstrap_manager_email"`
	BootstrapManagerPass  string            `json:"bootstrap_manager_password"`
	BootstrapManagerName  string            `json:"bootstrap_manager_name"`
}

// CookieConfig holds the session cookie policy inputs.
type CookieConfig struct {
	ProductionDomain string        `json:"production_domain"`
	MaxAge           time.Duration `json:"max_age"`
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), EnvDevelopment)
}

// Load reads the configuration from a JSON file.
//
// It reads configs/config.json unless another path is given, falls back to
// defaults when the file does not exist, and applies environment overrides
// (including a local .env file) last.
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe to run. Outside development
// both token secrets must be set and differ from the built-in dev values.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.Security.AccessTokenSecret == "" || c.Security.AccessTokenSecret == devAccessTokenSecret {
		return fmt.Errorf("security.access_token_secret (ACCESS_TOKEN_SECRET) must be set when env is %q", c.App.Env)
	}
	if c.Security.RoleTokenSecret == "" || c.Security.RoleTokenSecret == devRoleTokenSecret {
		return fmt.Errorf("security.role_token_secret (ROLE_JWT_SECRET) must be set when env is %q", c.App.Env)
	}
	return nil
}

// Save writes the configuration to a JSON file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:                EnvDevelopment,
			LogLevel:           "info",
			HTTPAddr:           ":9000",
			ClientURL:          "http://localhost:5173",
			OTPTTL:             10 * time.Minute,
			OTPRateLimit:       1.0 / 60.0,
			OTPRateBurst:       3,
			ProblemDedupWindow: 60,
			MinPasswordLength:  6,
		},
		MySQL: MySQLConfig{
			DSN: "root:password@tcp(localhost:3306)/algotracker?parseTime=true&loc=Local",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
		},
		Email: EmailConfig{
			SMTPHost:  "smtp.gmail.com",
			SMTPPort:  587,
			SMTPUser:  "",
			SMTPPass:  "",
			FromEmail: "",
		},
		Security: SecurityConfig{
			AccessTokenSecret: devAccessTokenSecret,
			AccessTokenTTL:    7 * 24 * time.Hour,
			RoleTokenSecret:   devRoleTokenSecret,
			RoleTokenTTL:      24 * time.Hour,
			RoleSuffixes: map[string]string{
				RoleManager: "mgr",
				RoleUser:    "usr",
			},
			CookiePrefixes: map[string]string{
				RoleManager: "002",
				RoleUser:    "001",
			},
			BcryptCost: 10,
		},
		Cookie: CookieConfig{
			ProductionDomain: ".indibus.net",
			MaxAge:           7 * 24 * time.Hour,
		},
	}
}

// applyDefaults fills fields that the config file left empty.
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.ClientURL == "" {
		cfg.App.ClientURL = defaults.App.ClientURL
	}
	if cfg.App.OTPTTL == 0 {
		cfg.App.OTPTTL = defaults.App.OTPTTL
	}
	if cfg.App.OTPRateLimit == 0 {
		cfg.App.OTPRateLimit = defaults.App.OTPRateLimit
	}
	if cfg.App.OTPRateBurst == 0 {
		cfg.App.OTPRateBurst = defaults.App.OTPRateBurst
	}
	if cfg.App.ProblemDedupWindow == 0 {
		cfg.App.ProblemDedupWindow = defaults.App.ProblemDedupWindow
	}
	if cfg.App.MinPasswordLength == 0 {
		cfg.App.MinPasswordLength = defaults.App.MinPasswordLength
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = defaults.MySQL.DSN
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if cfg.Security.AccessTokenSecret == "" {
		cfg.Security.AccessTokenSecret = defaults.Security.AccessTokenSecret
	}
	if cfg.Security.AccessTokenTTL == 0 {
		cfg.Security.AccessTokenTTL = defaults.Security.AccessTokenTTL
	}
	if cfg.Security.RoleTokenSecret == "" {
		cfg.Security.RoleTokenSecret = defaults.Security.RoleTokenSecret
	}
	if cfg.Security.RoleTokenTTL == 0 {
		cfg.Security.RoleTokenTTL = defaults.Security.RoleTokenTTL
	}
	if cfg.Security.RoleSuffixes == nil {
		cfg.Security.RoleSuffixes = map[string]string{}
	}
	for role, v := range defaults.Security.RoleSuffixes {
		if cfg.Security.RoleSuffixes[role] == "" {
			cfg.Security.RoleSuffixes[role] = v
		}
	}
	if cfg.Security.CookiePrefixes == nil {
		cfg.Security.CookiePrefixes = map[string]string{}
	}
	for role, v := range defaults.Security.CookiePrefixes {
		if cfg.Security.CookiePrefixes[role] == "" {
			cfg.Security.CookiePrefixes[role] = v
		}
	}
	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = defaults.Security.BcryptCost
	}
	if cfg.Cookie.ProductionDomain == "" {
		cfg.Cookie.ProductionDomain = defaults.Cookie.ProductionDomain
	}
	if cfg.Cookie.MaxAge == 0 {
		cfg.Cookie.MaxAge = defaults.Cookie.MaxAge
	}
}

// applyEnvOverrides lets environment variables win over file values.
//
// Names of the original deployment (NODE_ENV, ACCESS_TOKEN_SECRET,
// ROLE_JWT_SECRET, MAN_SUFFIX, ...) are honoured so existing .env files keep
// working.
func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("db_host", "DB_HOST")
	_ = viper.BindEnv("db_password", "DB_PASSWORD")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("smtp_user", "SMTP_USER", "EMAIL_USER")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS", "EMAIL_PASS")
	_ = viper.BindEnv("access_token_secret", "ACCESS_TOKEN_SECRET")
	_ = viper.BindEnv("role_token_secret", "ROLE_JWT_SECRET")
	_ = viper.BindEnv("app_env", "APP_ENV", "NODE_ENV")

	if v := viper.GetString("app_env"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.App.HTTPAddr = ":" + v
	}
	if v := os.Getenv("CLIENT_URL"); v != "" {
		cfg.App.ClientURL = v
	}
	if v := os.Getenv("APP_OTP_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.App.OTPTTL = d
		}
	}
	if v := os.Getenv("APP_OTP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.App.OTPRateLimit = f
		}
	}
	if v := os.Getenv("APP_OTP_RATE_BURST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.App.OTPRateBurst = f
		}
	}
	if v := os.Getenv("APP_PROBLEM_DEDUP_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.App.ProblemDedupWindow = i
		}
	}

	if v := viper.GetString("access_token_secret"); v != "" {
		cfg.Security.AccessTokenSecret = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Security.AccessTokenTTL = d
		}
	}
	if v := viper.GetString("role_token_secret"); v != "" {
		cfg.Security.RoleTokenSecret = v
	}
	// ACCESS_TOKEN_EXPIRY historically configured the role token lifetime.
	if v := os.Getenv("ACCESS_TOKEN_EXPIRY"); v != "" {
		if d, err := parseExpiry(v); err == nil {
			cfg.Security.RoleTokenTTL = d
		}
	}
	if cfg.Security.RoleSuffixes == nil {
		cfg.Security.RoleSuffixes = map[string]string{}
	}
	if cfg.Security.CookiePrefixes == nil {
		cfg.Security.CookiePrefixes = map[string]string{}
	}
	if v := os.Getenv("MAN_SUFFIX"); v != "" {
		cfg.Security.RoleSuffixes[RoleManager] = v
	}
	if v := os.Getenv("MAN_KEY_NAME"); v != "" {
		cfg.Security.CookiePrefixes[RoleManager] = v
	}
	if v := os.Getenv("USER_SUFFIX"); v != "" {
		cfg.Security.RoleSuffixes[RoleUser] = v
	}
	if v := os.Getenv("USER_KEY_NAME"); v != "" {
		cfg.Security.CookiePrefixes[RoleUser] = v
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Security.BcryptCost = i
		}
	}
	if v := os.Getenv("BOOTSTRAP_MANAGER_EMAIL"); v != "" {
		cfg.Security.BootstrapManagerEmail = v
	}
	if v := os.Getenv("BOOTSTRAP_MANAGER_PASSWORD"); v != "" {
		cfg.Security.BootstrapManagerPass = v
	}
	if v := os.Getenv("BOOTSTRAP_MANAGER_NAME"); v != "" {
		cfg.Security.BootstrapManagerName = v
	}

	if v := os.Getenv("COOKIE_DOMAIN"); v != "" {
		cfg.Cookie.ProductionDomain = v
	}

	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.MySQL.DSN = v
	} else if hasAnyEnv("DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME") {
		parsed := parseMySQLDSN(cfg.MySQL.DSN)
		if v := viper.GetString("db_host"); v != "" {
			parsed.Addr = v + ":" + getenvDefault("DB_PORT", parsed.Addr, "3306")
		} else if v := os.Getenv("DB_PORT"); v != "" {
			host := parsed.Addr
			if strings.Contains(host, ":") {
				host = strings.Split(host, ":")[0]
			}
			parsed.Addr = host + ":" + v
		}
		if v := os.Getenv("DB_USER"); v != "" {
			parsed.User = v
		}
		if v := viper.GetString("db_password"); v != "" {
			parsed.Passwd = v
		}
		if v := os.Getenv("DB_NAME"); v != "" {
			parsed.DBName = v
		}
		cfg.MySQL.DSN = parsed.FormatDSN()
	}

	if v := viper.GetString("redis_addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := viper.GetString("redis_password"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = i
		}
	}
	if v := viper.GetString("smtp_user"); v != "" {
		cfg.Email.SMTPUser = v
		if cfg.Email.FromEmail == "" {
			cfg.Email.FromEmail = v
		}
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Email.FromEmail = v
	}
}

// parseExpiry accepts Go durations plus the "7d" / bare-seconds forms used by
// jsonwebtoken's expiresIn.
func parseExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", v)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q", v)
	}
	return time.Duration(secs) * time.Second, nil
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, fallbackAddr, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if strings.Contains(fallbackAddr, ":") {
		parts := strings.Split(fallbackAddr, ":")
		if len(parts) == 2 && parts[1] != "" {
			return parts[1]
		}
	}
	return defaultValue
}

func parseMySQLDSN(dsn string) *mysql.Config {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil || dsn == "" {
		cfg := mysql.NewConfig()
		cfg.User = "root"
		cfg.Net = "tcp"
		cfg.Addr = "localhost:3306"
		cfg.DBName = "algotracker"
		cfg.ParseTime = true
		return cfg
	}
	return parsed
}

// UnmarshalJSON accepts duration strings such as "10m".
func (a *AppConfig) UnmarshalJSON(data []byte) error {
	type Alias AppConfig
	aux := &struct {
		OTPTTL string `json:"otp_ttl"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.OTPTTL != "" {
		d, err := time.ParseDuration(aux.OTPTTL)
		if err != nil {
			return fmt.Errorf("invalid otp_ttl format: %w", err)
		}
		a.OTPTTL = d
	}
	return nil
}

// MarshalJSON writes durations as strings.
func (a AppConfig) MarshalJSON() ([]byte, error) {
	type Alias AppConfig
	return json.Marshal(&struct {
		OTPTTL string `json:"otp_ttl"`
		*Alias
	}{
		OTPTTL: a.OTPTTL.String(),
		Alias:  (*Alias)(&a),
	})
}

// UnmarshalJSON accepts duration strings for the token lifetimes.
func (s *SecurityConfig) UnmarshalJSON(data []byte) error {
	type Alias SecurityConfig
	aux := &struct {
		AccessTokenTTL string `json:"access_token_ttl"`
		RoleTokenTTL   string `json:"role_token_ttl"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.AccessTokenTTL != "" {
		d, err := parseExpiry(aux.AccessTokenTTL)
		if err != nil {
			return fmt.Errorf("invalid access_token_ttl format: %w", err)
		}
		s.AccessTokenTTL = d
	}
	if aux.RoleTokenTTL != "" {
		d, err := parseExpiry(aux.RoleTokenTTL)
		if err != nil {
			return fmt.Errorf("invalid role_token_ttl format: %w", err)
		}
		s.RoleTokenTTL = d
	}
	return nil
}

// MarshalJSON writes token lifetimes as strings.
func (s SecurityConfig) MarshalJSON() ([]byte, error) {
	type Alias SecurityConfig
	return json.Marshal(&struct {
		AccessTokenTTL string `json:"access_token_ttl"`
		RoleTokenTTL   string `json:"role_token_ttl"`
		*Alias
	}{
		AccessTokenTTL: s.AccessTokenTTL.String(),
		RoleTokenTTL:   s.RoleTokenTTL.String(),
		Alias:          (*Alias)(&s),
	})
}

// UnmarshalJSON accepts a duration string for the cookie max-age.
func (c *CookieConfig) UnmarshalJSON(data []byte) error {
	type Alias CookieConfig
	aux := &struct {
		MaxAge string `json:"max_age"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MaxAge != "" {
		d, err := parseExpiry(aux.MaxAge)
		if err != nil {
			return fmt.Errorf("invalid max_age format: %w", err)
		}
		c.MaxAge = d
	}
	return nil
}

// MarshalJSON writes the cookie max-age as a string.
func (c CookieConfig) MarshalJSON() ([]byte, error) {
	type Alias CookieConfig
	return json.Marshal(&struct {
		MaxAge string `json:"max_age"`
		*Alias
	}{
		MaxAge: c.MaxAge.String(),
		Alias:  (*Alias)(&c),
	})
}
