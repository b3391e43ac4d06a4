package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the webhook service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Query   QueryConfig   `yaml:"query"`
	Report  ReportConfig  `yaml:"report"`
	GitHub  GitHubConfig  `yaml:"github"`
	Webhook WebhookConfig `yaml:"webhook"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// QueryConfig scopes and sizes the log-store queries.
type QueryConfig struct {
	ProjectID         string   `yaml:"projectID"`
	Region            string   `yaml:"region"`
	Services          []string `yaml:"services"`
	WindowMinutes     int      `yaml:"windowMinutes"`
	PreTriggerMinutes int      `yaml:"preTriggerMinutes"`
	WidenExtraMinutes int      `yaml:"widenExtraMinutes"`
	PageSize          int      `yaml:"pageSize"`
	TraceScopeErrors  bool     `yaml:"traceScopeErrors"`
	SelfService       string   `yaml:"selfService"`
}

// ReportConfig bounds the rendered report.
type ReportConfig struct {
	MentionHandle string `yaml:"mentionHandle"`
	MaxLines      int    `yaml:"maxLines"`
	MaxChars      int    `yaml:"maxChars"`
}

// GitHubConfig configures the ticketing collaborator.
type GitHubConfig struct {
	Token       string            `yaml:"token"`
	APIBaseURL  string            `yaml:"apiBaseURL"`
	RepoMap     map[string]string `yaml:"repoMap"`
	DefaultRepo string            `yaml:"defaultRepo"`
	Timeout     time.Duration     `yaml:"timeout"`
}

// WebhookConfig holds the optional basic-auth challenge. When both fields are
// empty the endpoint is open.
type WebhookConfig struct {
	BasicUser string `yaml:"basicUser"`
	BasicPass string `yaml:"basicPass"`
}

// CacheConfig controls the Redis-backed cache for ticketing lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	TLS          bool          `yaml:"tls"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	LatestPRTTL  time.Duration `yaml:"latestPRTTL"`
}

// envOverrides is the flat environment surface. Several keys are aliases
// kept for compatibility with the monitoring deployment that sets them.
type envOverrides struct {
	Project       string `env:"GCP_PROJECT"`
	ProjectCloud  string `env:"GOOGLE_CLOUD_PROJECT"`
	ProjectID     string `env:"PROJECT_ID"`
	Region        string `env:"REGION"`
	Services      string `env:"CLOUD_RUN_SERVICES"`
	RepoMapJSON   string `env:"REPO_MAP_JSON"`
	DefaultRepo   string `env:"DEFAULT_REPO"`
	GitHubToken   string `env:"GITHUB_TOKEN"`
	MentionHandle string `env:"MENTION_HANDLE"`
	BasicUser     string `env:"WEBHOOK_USER"`
	BasicPass     string `env:"WEBHOOK_PASS"`
	WindowMin     int    `env:"WINDOW_MIN" envDefault:"-1"`
	PreMin        int    `env:"PRE_MIN" envDefault:"-1"`
	ExtraMin      int    `env:"EXTRA_MIN" envDefault:"-1"`
	MaxLines      int    `env:"MAX_LINES" envDefault:"-1"`
	MaxChars      int    `env:"MAX_CHARS" envDefault:"-1"`
	PageSize      int    `env:"PAGE_SIZE" envDefault:"-1"`
	TraceScope    string `env:"TRACE_SCOPE_ERRORS"`
	ListenAddr    string `env:"LISTEN_ADDR"`
	MetricsAddr   string `env:"METRICS_ADDR"`
	LogLevel      string `env:"LOG_LEVEL"`
	LogFormat     string `env:"LOG_FORMAT"`
	SelfService   string `env:"K_SERVICE"`
	CacheEnabled  string `env:"CACHE_ENABLED"`
	CacheAddr     string `env:"CACHE_ADDR"`
	CacheUsername string `env:"CACHE_USERNAME"`
	CachePassword string `env:"CACHE_PASSWORD"`
	CacheDB       int    `env:"CACHE_DB" envDefault:"-1"`
	CacheTLS      string `env:"CACHE_TLS"`
}

// Load initialises Config from an optional YAML file plus environment
// overrides. A .env file is honoured for local development.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("LOGSLEUTH_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the startup preconditions. Anything else degrades at
// request time instead.
func (c *Config) Validate() error {
	if c.Query.ProjectID == "" {
		return errors.New("project id is required (set GCP_PROJECT, GOOGLE_CLOUD_PROJECT or PROJECT_ID)")
	}
	if c.GitHub.Token == "" {
		return errors.New("github token is required (set GITHUB_TOKEN)")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Query: QueryConfig{
			WindowMinutes:     5,
			PreTriggerMinutes: 10,
			WidenExtraMinutes: 10,
			PageSize:          100,
		},
		Report: ReportConfig{
			MentionHandle: "codex",
			MaxLines:      40,
			MaxChars:      20000,
		},
		GitHub: GitHubConfig{
			APIBaseURL: "https://api.github.com",
			Timeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			LatestPRTTL:  2 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	// First alias wins for the project id.
	for _, candidate := range []string{ov.Project, ov.ProjectCloud, ov.ProjectID} {
		if candidate != "" {
			cfg.Query.ProjectID = candidate
			break
		}
	}
	if ov.Region != "" {
		cfg.Query.Region = ov.Region
	}
	if ov.Services != "" {
		cfg.Query.Services = splitServices(ov.Services)
	}
	if ov.RepoMapJSON != "" {
		repoMap := map[string]string{}
		if err := json.Unmarshal([]byte(ov.RepoMapJSON), &repoMap); err != nil {
			return fmt.Errorf("parse REPO_MAP_JSON: %w", err)
		}
		cfg.GitHub.RepoMap = repoMap
	}
	if ov.DefaultRepo != "" {
		cfg.GitHub.DefaultRepo = ov.DefaultRepo
	}
	if ov.GitHubToken != "" {
		cfg.GitHub.Token = ov.GitHubToken
	}
	if ov.MentionHandle != "" {
		cfg.Report.MentionHandle = ov.MentionHandle
	}
	if ov.BasicUser != "" {
		cfg.Webhook.BasicUser = ov.BasicUser
	}
	if ov.BasicPass != "" {
		cfg.Webhook.BasicPass = ov.BasicPass
	}
	if ov.WindowMin >= 0 {
		cfg.Query.WindowMinutes = ov.WindowMin
	}
	if ov.PreMin >= 0 {
		cfg.Query.PreTriggerMinutes = ov.PreMin
	}
	if ov.ExtraMin >= 0 {
		cfg.Query.WidenExtraMinutes = ov.ExtraMin
	}
	if ov.MaxLines >= 0 {
		cfg.Report.MaxLines = ov.MaxLines
	}
	if ov.MaxChars >= 0 {
		cfg.Report.MaxChars = ov.MaxChars
	}
	if ov.PageSize > 0 {
		cfg.Query.PageSize = ov.PageSize
	}
	if ov.TraceScope != "" {
		cfg.Query.TraceScopeErrors = isTruthy(ov.TraceScope)
	}
	if ov.ListenAddr != "" {
		cfg.Server.Address = ov.ListenAddr
	}
	if ov.MetricsAddr != "" {
		cfg.Server.MetricsAddress = ov.MetricsAddr
	}
	if ov.LogLevel != "" {
		cfg.Logging.Level = ov.LogLevel
	}
	if ov.LogFormat == "json" {
		cfg.Logging.JSON = true
	}
	if ov.SelfService != "" {
		cfg.Query.SelfService = ov.SelfService
	}
	if ov.CacheEnabled != "" {
		cfg.Cache.Enabled = isTruthy(ov.CacheEnabled)
	}
	if ov.CacheAddr != "" {
		cfg.Cache.Addr = ov.CacheAddr
	}
	if ov.CacheUsername != "" {
		cfg.Cache.Username = ov.CacheUsername
	}
	if ov.CachePassword != "" {
		cfg.Cache.Password = ov.CachePassword
	}
	if ov.CacheDB >= 0 {
		cfg.Cache.DB = ov.CacheDB
	}
	if ov.CacheTLS != "" {
		cfg.Cache.TLS = isTruthy(ov.CacheTLS)
	}
	return nil
}

func splitServices(raw string) []string {
	parts := strings.Split(raw, ",")
	services := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			services = append(services, s)
		}
	}
	return services
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
