package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"chemradar/internal/domain"
)

const (
	configPathEnv    = "CHEM_RADAR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	feishuWebhookEnv = "FEISHU_WEBHOOK_URL"
	geminiKeyEnv     = "GEMINI_API_KEY"
	deepseekKeyEnv   = "DEEPSEEK_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Feeds     FeedConfig      `yaml:"feeds"`
	Selection SelectionConfig `yaml:"selection"`
	Screening ScreeningConfig `yaml:"screening"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Feishu    FeishuConfig    `yaml:"feishu"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig locates the pushed-identifier history file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig describes the optional Postgres archive connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines whether and how often the radar repeats.
type SchedulerConfig struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"intervalHours"`
}

// Interval resolves the configured repeat interval.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.IntervalHours) * time.Hour
}

// FeedConfig groups the monitored journals and the recency window.
type FeedConfig struct {
	WindowDays     int             `yaml:"windowDays"`
	TimeoutSeconds int             `yaml:"timeoutSeconds"`
	Journals       []JournalConfig `yaml:"journals"`
}

// Window resolves the recency window.
func (f FeedConfig) Window() time.Duration {
	days := f.WindowDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// Timeout resolves the per-feed HTTP timeout.
func (f FeedConfig) Timeout() time.Duration {
	return secondsOrDefault(f.TimeoutSeconds, 20*time.Second)
}

// JournalConfig names one RSS source.
type JournalConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SelectionConfig drives the quota and ordering logic of the selection
// engine.
type SelectionConfig struct {
	Quotas   map[string]int `yaml:"quotas"`
	Priority []string       `yaml:"priority"`
}

// ScreeningConfig wires the Layer-1 fast screen (Gemini-compatible API).
// FailOpen decides what an errored screen call does with the article:
// passing it through trades cost for recall and must be an explicit choice.
type ScreeningConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	FailOpen       *bool  `yaml:"failOpen"`
}

// Timeout resolves the per-call screening timeout.
func (s ScreeningConfig) Timeout() time.Duration {
	return secondsOrDefault(s.TimeoutSeconds, 10*time.Second)
}

// FastScreenFailOpen resolves the configured policy, defaulting to open.
func (s ScreeningConfig) FastScreenFailOpen() bool {
	if s.FailOpen == nil {
		return true
	}
	return *s.FailOpen
}

// AnalysisConfig wires the Layer-2 deep analyzer (DeepSeek-compatible API).
type AnalysisConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxAttempts    int    `yaml:"maxAttempts"`
	BackoffSeconds int    `yaml:"backoffSeconds"`
}

// Timeout resolves the per-call analysis timeout.
func (a AnalysisConfig) Timeout() time.Duration {
	return secondsOrDefault(a.TimeoutSeconds, 60*time.Second)
}

// Backoff resolves the delay between analysis attempts.
func (a AnalysisConfig) Backoff() time.Duration {
	return secondsOrDefault(a.BackoffSeconds, 2*time.Second)
}

// FeishuConfig wires the outbound webhook.
type FeishuConfig struct {
	WebhookURL     string `yaml:"webhookUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout resolves the webhook request timeout.
func (f FeishuConfig) Timeout() time.Duration {
	return secondsOrDefault(f.TimeoutSeconds, 20*time.Second)
}

// Load reads YAML configuration (if present) and applies environment
// overrides for secrets.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Feeds.Journals) == 0 {
		cfg.Feeds.Journals = defaultConfig().Feeds.Journals
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(feishuWebhookEnv); v != "" {
		c.Feishu.WebhookURL = v
	}

	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Screening.APIKey = v
	}

	if v := os.Getenv(deepseekKeyEnv); v != "" {
		c.Analysis.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Store.Path != "" {
		base.Store = override.Store
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}

	if override.Feeds.WindowDays > 0 {
		base.Feeds.WindowDays = override.Feeds.WindowDays
	}
	if override.Feeds.TimeoutSeconds > 0 {
		base.Feeds.TimeoutSeconds = override.Feeds.TimeoutSeconds
	}
	if len(override.Feeds.Journals) > 0 {
		base.Feeds.Journals = override.Feeds.Journals
	}

	if len(override.Selection.Quotas) > 0 {
		base.Selection.Quotas = override.Selection.Quotas
	}
	if len(override.Selection.Priority) > 0 {
		base.Selection.Priority = override.Selection.Priority
	}

	base.Screening = mergeScreening(base.Screening, override.Screening)
	base.Analysis = mergeAnalysis(base.Analysis, override.Analysis)

	if override.Feishu.WebhookURL != "" {
		base.Feishu.WebhookURL = override.Feishu.WebhookURL
	}
	if override.Feishu.TimeoutSeconds > 0 {
		base.Feishu.TimeoutSeconds = override.Feishu.TimeoutSeconds
	}

	return base
}

func mergeScreening(base, override ScreeningConfig) ScreeningConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.TimeoutSeconds > 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.FailOpen != nil {
		base.FailOpen = override.FailOpen
	}
	return base
}

func mergeAnalysis(base, override AnalysisConfig) AnalysisConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.TimeoutSeconds > 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.MaxAttempts > 0 {
		base.MaxAttempts = override.MaxAttempts
	}
	if override.BackoffSeconds > 0 {
		base.BackoffSeconds = override.BackoffSeconds
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Store:     StoreConfig{Path: "pushed_dois.json"},
		Scheduler: SchedulerConfig{Enabled: false, IntervalHours: 24},
		Feeds: FeedConfig{
			WindowDays:     7,
			TimeoutSeconds: 20,
			Journals:       defaultJournals(),
		},
		Selection: SelectionConfig{
			Quotas: map[string]int{
				domain.CategoryCarbene:     8,
				domain.CategoryMethodology: 5,
			},
			Priority: []string{domain.CategoryCarbene, domain.CategoryMethodology},
		},
		Screening: ScreeningConfig{
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions",
			Model:          "gemini-3.0-flash",
			TimeoutSeconds: 10,
		},
		Analysis: AnalysisConfig{
			Endpoint:       "https://api.deepseek.com/chat/completions",
			Model:          "deepseek-reasoner",
			TimeoutSeconds: 60,
			MaxAttempts:    2,
			BackoffSeconds: 2,
		},
		Feishu: FeishuConfig{TimeoutSeconds: 20},
	}
}

func defaultJournals() []JournalConfig {
	return []JournalConfig{
		{Name: "Journal of the American Chemical Society", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=jacsat"},
		{Name: "ACS Catalysis", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=accacs"},
		{Name: "Organic Letters", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=orlef7"},
		{Name: "The Journal of Organic Chemistry", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=joceah"},
		{Name: "Accounts of Chemical Research", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=achre4"},
		{Name: "ACS Bio & Med Chem Au", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=abmcb8"},
		{Name: "ACS Organic & Inorganic Au", URL: "https://pubs.acs.org/action/showFeed?type=etoc&feed=rss&jc=aoiabc"},
		{Name: "Angewandte Chemie International Edition", URL: "https://onlinelibrary.wiley.com/feed/15213773/most-recent"},
		{Name: "Advanced Synthesis & Catalysis", URL: "https://onlinelibrary.wiley.com/feed/16154169/most-recent"},
		{Name: "Chemical Science", URL: "https://pubs.rsc.org/en/journals/rsslanding?journalcode=sc"},
		{Name: "Chemical Communications", URL: "https://pubs.rsc.org/en/journals/rsslanding?journalcode=cc"},
		{Name: "Organic Chemistry Frontiers", URL: "https://pubs.rsc.org/en/journals/rsslanding?journalcode=qo"},
		{Name: "Nature Chemistry", URL: "https://www.nature.com/nchem.rss"},
		{Name: "Nature Catalysis", URL: "https://www.nature.com/natcatal.rss"},
		{Name: "Nature Communications", URL: "https://www.nature.com/ncomms.rss"},
		{Name: "Nature Synthesis", URL: "https://www.nature.com/natsynth.rss"},
		{Name: "Nature Reviews Chemistry", URL: "https://www.nature.com/natrevchem.rss"},
		{Name: "Journal of Organometallic Chemistry", URL: "https://rss.sciencedirect.com/publication/science/0022328X"},
		{Name: "Tetrahedron", URL: "https://rss.sciencedirect.com/publication/science/00404020"},
		{Name: "Synthesis", URL: "https://www.thieme-connect.com/products/ejournals/rss/synthesis"},
		{Name: "Synlett", URL: "https://www.thieme-connect.com/products/ejournals/rss/synlett"},
		{Name: "Science", URL: "https://www.science.org/action/showFeed?type=axatoc&feed=rss&jc=science"},
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
