package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".mall-writer/"

//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/writer-prompt.md
var defaultWriterPrompt string

//go:embed config/post-schema.json
var defaultPostSchema string

// ConfigOverrides holds values given on the command line. Nil means "not set".
type ConfigOverrides struct {
	SettingsPath *string
	QueuePath    *string
	WriteURL     *string
	ListURL      *string
	Secret       *bool
	ImageCount   *int
	Headless     *bool
}

// Settings represents the YAML configuration structure
type Settings struct {
	QueuePath string            `yaml:"queue_path"`
	Site      SiteSettings      `yaml:"site"`
	Browser   BrowserSettings   `yaml:"browser"`
	Post      PostSettings      `yaml:"post"`
	Login     LoginSettings     `yaml:"login"`
	Generator GeneratorSettings `yaml:"generator"`
	Schedule  string            `yaml:"schedule"`
}

type SiteSettings struct {
	BaseURL        string   `yaml:"base_url"`
	WriteURL       string   `yaml:"write_url"`
	ListURL        string   `yaml:"list_url"`
	LoginURLs      []string `yaml:"login_urls"`
	SuccessPattern string   `yaml:"success_pattern"`
	LogoutText     string   `yaml:"logout_text"`
	LoginText      string   `yaml:"login_text"`
	AlertLimit     int      `yaml:"alert_limit"`
}

// Origin is the page opened before the login check. BaseURL is kept only when
// it is on the same host as the post target; otherwise scheme and host are
// taken from the write URL, then the list URL.
func (s SiteSettings) Origin() string {
	target := s.WriteURL
	if target == "" {
		target = s.ListURL
	}
	t, err := url.Parse(target)
	if err != nil || t.Host == "" {
		return s.BaseURL
	}
	if s.BaseURL != "" {
		if b, err := url.Parse(s.BaseURL); err == nil && strings.EqualFold(b.Host, t.Host) {
			return s.BaseURL
		}
	}
	return t.Scheme + "://" + t.Host
}

type BrowserSettings struct {
	Headless       bool   `yaml:"headless"`
	ChromePath     string `yaml:"chrome_path"`
	UserDataDir    string `yaml:"user_data_dir"`
	Profile        string `yaml:"profile"`
	FallbackDir    string `yaml:"fallback_dir"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout bounds page-load and element waits
func (b BrowserSettings) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type PostSettings struct {
	Secret       bool   `yaml:"secret"`
	ImageCount   int    `yaml:"image_count"`
	ImageBaseURL string `yaml:"image_base_url"`
}

type LoginSettings struct {
	ManualTimeoutSeconds int `yaml:"manual_timeout_seconds"`
	PollIntervalMillis   int `yaml:"poll_interval_ms"`
}

func (l LoginSettings) ManualTimeout() time.Duration {
	return time.Duration(l.ManualTimeoutSeconds) * time.Second
}

func (l LoginSettings) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMillis) * time.Millisecond
}

// CategoryGroup is a top-level category and its sub-categories, in display order
type CategoryGroup struct {
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories"`
}

type GeneratorSettings struct {
	MaxTokens      int             `yaml:"max_tokens"`
	Temperature    float64         `yaml:"temperature"`
	TitleMin       int             `yaml:"title_min"`
	TitleMax       int             `yaml:"title_max"`
	ForbiddenWords []string        `yaml:"forbidden_words"`
	Disclaimer     string          `yaml:"disclaimer"`
	Categories     []CategoryGroup `yaml:"categories"`
}

// Credentials is the site login pair
type Credentials struct {
	ID       string
	Password string
}

func (c Credentials) Empty() bool {
	return c.ID == "" || c.Password == ""
}

// Config is handed to every component at construction time
type Config struct {
	Settings    *Settings
	Credentials Credentials
	APIKey      string
	Overrides   *ConfigOverrides
}

// LoadConfig resolves settings file, .env, environment and flag overrides, in
// increasing order of precedence.
func LoadConfig(overrides *ConfigOverrides) (*Config, error) {
	var settings *Settings
	var err error

	if overrides != nil && overrides.SettingsPath != nil {
		// Explicit settings file must exist
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("settings file %s: %w", *overrides.SettingsPath, err)
		}
	} else {
		if err := ensureConfigExists(); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settings, err = loadSettings(filepath.Join(defaultConfigDir, "settings.yaml"))
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: ignoring unreadable .env: %v", err)
	}

	cfg := &Config{Settings: settings, Overrides: overrides}
	applyEnv(cfg, os.Getenv)
	applyOverrides(settings, overrides)
	applyDefaults(settings)

	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envValue(getenv func(string) string, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// applyEnv folds the environment into the config
func applyEnv(cfg *Config, getenv func(string) string) {
	s := cfg.Settings
	cfg.Credentials = Credentials{
		ID:       envValue(getenv, "ZAEDA_ID"),
		Password: envValue(getenv, "ZAEDA_PW"),
	}
	cfg.APIKey = envValue(getenv, "ANTHROPIC_API_KEY")

	if v := envValue(getenv, "CHROME_USER_DATA_DIR"); v != "" {
		s.Browser.UserDataDir = v
	}
	if v := envValue(getenv, "CHROME_PROFILE"); v != "" {
		s.Browser.Profile = v
	}
	if v := envValue(getenv, "CHROME_FALLBACK_DIR"); v != "" {
		s.Browser.FallbackDir = v
	}
	if v := envValue(getenv, "ZAEDA_WRITE_URL", "WRITE_URL"); v != "" {
		s.Site.WriteURL = v
	}
	if v := envValue(getenv, "LIST_URL"); v != "" {
		s.Site.ListURL = v
	}
	switch envValue(getenv, "MALL_SECRET_DEFAULT", "SECRET_DEFAULT") {
	case "1":
		s.Post.Secret = true
	case "0":
		s.Post.Secret = false
	}
}

func applyOverrides(s *Settings, o *ConfigOverrides) {
	if o == nil {
		return
	}
	if o.QueuePath != nil {
		s.QueuePath = *o.QueuePath
	}
	if o.WriteURL != nil {
		s.Site.WriteURL = *o.WriteURL
	}
	if o.ListURL != nil {
		s.Site.ListURL = *o.ListURL
	}
	if o.Secret != nil {
		s.Post.Secret = *o.Secret
	}
	if o.ImageCount != nil {
		s.Post.ImageCount = *o.ImageCount
	}
	if o.Headless != nil {
		s.Browser.Headless = *o.Headless
	}
}

func applyDefaults(s *Settings) {
	if s.QueuePath == "" {
		s.QueuePath = filepath.Join("docs", "data.xlsx")
	}
	if s.Site.LogoutText == "" {
		s.Site.LogoutText = "로그아웃"
	}
	if s.Site.LoginText == "" {
		s.Site.LoginText = "로그인"
	}
	if s.Site.AlertLimit <= 0 {
		s.Site.AlertLimit = 3
	}
	if s.Browser.FallbackDir == "" {
		s.Browser.FallbackDir = filepath.Join(defaultConfigDir, "chrome-profile")
	}
	if s.Post.ImageCount < 0 {
		s.Post.ImageCount = 0
	}
	if s.Post.ImageCount > maxUploadFiles {
		s.Post.ImageCount = maxUploadFiles
	}
	if s.Post.ImageBaseURL == "" {
		s.Post.ImageBaseURL = "https://source.unsplash.com"
	}
	if s.Login.ManualTimeoutSeconds <= 0 {
		s.Login.ManualTimeoutSeconds = 180
	}
	if s.Login.PollIntervalMillis <= 0 {
		s.Login.PollIntervalMillis = 1500
	}
	g := &s.Generator
	if g.TitleMin <= 0 {
		g.TitleMin = 22
	}
	if g.TitleMax < g.TitleMin {
		g.TitleMax = 30
	}
	if g.MaxTokens <= 0 {
		g.MaxTokens = 2200
	}
}

func validateSettings(s *Settings) error {
	if s.Site.WriteURL == "" && s.Site.ListURL == "" {
		return fmt.Errorf("either site.write_url or site.list_url is required")
	}
	if s.Generator.TitleMin > s.Generator.TitleMax {
		return fmt.Errorf("generator.title_min (%d) exceeds title_max (%d)", s.Generator.TitleMin, s.Generator.TitleMax)
	}
	return nil
}

// loadSettings loads settings from YAML file with fallback to embedded defaults
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		data = []byte(defaultSettings)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// loadSettingsRequired loads settings from YAML file, failing if file doesn't exist
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// ensureConfigExists creates the config directory and writes any missing
// default file into it
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	files := map[string]string{
		"settings.yaml":    defaultSettings,
		"writer-prompt.md": defaultWriterPrompt,
	}
	for name, content := range files {
		path := filepath.Join(defaultConfigDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
		}
	}
	return nil
}

// loadWriterPrompt returns the user-editable prompt, or the embedded one when
// the config directory has none
func loadWriterPrompt() string {
	data, err := os.ReadFile(filepath.Join(defaultConfigDir, "writer-prompt.md"))
	if err != nil || strings.TrimSpace(string(data)) == "" {
		return defaultWriterPrompt
	}
	return string(data)
}
