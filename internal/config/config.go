// Package config holds the lazy-load settings read by the rewrite engine.
//
// Settings come from an optional YAML file, then .env files, then
// IMAGE_LAZYLOAD_* environment variables, in increasing priority. The
// resulting Config is a plain value handed to the engine per call; nothing
// in this package is global.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-lazyload/internal/logger"
)

// LoadingType selects what a deferred image shows before it loads.
type LoadingType string

const (
	LoadingIcon        LoadingType = "icon"
	LoadingPlaceholder LoadingType = "placeholder"
)

// PlaceholderType selects the placeholder image in placeholder mode.
type PlaceholderType string

const (
	PlaceholderTransparent PlaceholderType = "transparent"
	PlaceholderBlurred     PlaceholderType = "blurred"
	PlaceholderLowQuality  PlaceholderType = "low_quality"
)

// Defaults.
const (
	DefaultMinWidth  = 60
	DefaultMinHeight = 60
	DefaultCacheDir  = "media/mageplaza/lazyloading/"
	DefaultLogLevel  = "info"
)

// Config is the full settings tree.
type Config struct {
	General GeneralConfig `yaml:"general"`
	Loading LoadingConfig `yaml:"loading"`
	Exclude ExcludeConfig `yaml:"exclude"`
	SEO     SEOConfig     `yaml:"seo"`
	Store   StoreConfig   `yaml:"store"`
	Paths   PathsConfig   `yaml:"paths"`
	Log     logger.Config `yaml:"log"`
}

type GeneralConfig struct {
	Enabled  bool `yaml:"enabled"`
	LazyLoad bool `yaml:"lazy_load"`
}

type LoadingConfig struct {
	Type            LoadingType     `yaml:"type"`
	PlaceholderType PlaceholderType `yaml:"placeholder_type"`
	MinWidth        int             `yaml:"min_width"`
	MinHeight       int             `yaml:"min_height"`
}

// ExcludeConfig lists the rules that keep a tag untouched.
type ExcludeConfig struct {
	Classes []string `yaml:"classes"`
	Texts   []string `yaml:"texts"`
}

type SEOConfig struct {
	Enabled      bool `yaml:"enabled"`
	AutoAltImage bool `yaml:"auto_alt_image"`
}

// StoreConfig describes the site whose HTML is rewritten.
type StoreConfig struct {
	BaseURL  string `yaml:"base_url"`
	MediaURL string `yaml:"media_url"`
}

type PathsConfig struct {
	// PublicRoot is the directory the base URL maps onto.
	PublicRoot string `yaml:"public_root"`
	// CacheDir is relative to PublicRoot.
	CacheDir string `yaml:"cache_dir"`
}

// Default returns a Config with lazy loading on in icon mode.
func Default() Config {
	cfg := Config{
		General: GeneralConfig{Enabled: true, LazyLoad: true},
		Loading: LoadingConfig{
			Type:            LoadingIcon,
			PlaceholderType: PlaceholderTransparent,
			MinWidth:        DefaultMinWidth,
			MinHeight:       DefaultMinHeight,
		},
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero values. The minimum dimensions are not touched here:
// they are pre-filled by Default so an explicit 0 survives loading.
func (c *Config) SetDefaults() {
	if c.Loading.Type == "" {
		c.Loading.Type = LoadingIcon
	}
	if c.Loading.PlaceholderType == "" {
		c.Loading.PlaceholderType = PlaceholderTransparent
	}
	if c.Paths.CacheDir == "" {
		c.Paths.CacheDir = DefaultCacheDir
	}
	if c.Paths.PublicRoot == "" {
		c.Paths.PublicRoot = "."
	}
	if c.Store.MediaURL == "" && c.Store.BaseURL != "" {
		c.Store.MediaURL = strings.TrimSuffix(c.Store.BaseURL, "/") + "/media"
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate reports settings the engine cannot work with.
func (c *Config) Validate() error {
	switch c.Loading.Type {
	case LoadingIcon, LoadingPlaceholder:
	default:
		return fmt.Errorf("invalid loading.type %q: must be %q or %q", c.Loading.Type, LoadingIcon, LoadingPlaceholder)
	}
	if strings.TrimSpace(string(c.Loading.PlaceholderType)) == "" {
		return fmt.Errorf("loading.placeholder_type must not be empty")
	}
	if strings.ContainsAny(string(c.Loading.PlaceholderType), " \t\"") {
		return fmt.Errorf("invalid loading.placeholder_type %q: must be a single CSS class token", c.Loading.PlaceholderType)
	}
	if c.Loading.MinWidth < 0 || c.Loading.MinHeight < 0 {
		return fmt.Errorf("loading.min_width and loading.min_height must not be negative")
	}
	return nil
}

// IsExcludeClass reports whether any class in classes is listed in
// exclude.classes.
func (c *Config) IsExcludeClass(classes []string) bool {
	for _, class := range classes {
		for _, rule := range c.Exclude.Classes {
			if rule != "" && class == rule {
				return true
			}
		}
	}
	return false
}

// IsExcludeText reports whether text contains any entry of exclude.texts.
// A nil text never matches.
func (c *Config) IsExcludeText(text *string) bool {
	if text == nil {
		return false
	}
	for _, rule := range c.Exclude.Texts {
		if rule != "" && strings.Contains(*text, rule) {
			return true
		}
	}
	return false
}

// AutoAltEnabled reports whether alt text may be derived from file names.
func (c *Config) AutoAltEnabled() bool {
	return c.SEO.Enabled && c.SEO.AutoAltImage
}

// Load reads path (if non-empty), applies .env files and environment
// overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

const envPrefix = "IMAGE_LAZYLOAD_"

func applyEnv(cfg *Config) error {
	boolVars := map[string]*bool{
		"ENABLED":      &cfg.General.Enabled,
		"LAZY_LOAD":    &cfg.General.LazyLoad,
		"SEO_ENABLED":  &cfg.SEO.Enabled,
		"SEO_AUTO_ALT": &cfg.SEO.AutoAltImage,
	}
	for name, dst := range boolVars {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
			}
			*dst = b
		}
	}

	intVars := map[string]*int{
		"MIN_WIDTH":  &cfg.Loading.MinWidth,
		"MIN_HEIGHT": &cfg.Loading.MinHeight,
	}
	for name, dst := range intVars {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "LOADING_TYPE"); ok {
		cfg.Loading.Type = LoadingType(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "PLACEHOLDER_TYPE"); ok {
		cfg.Loading.PlaceholderType = PlaceholderType(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "EXCLUDE_CLASSES"); ok {
		cfg.Exclude.Classes = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "EXCLUDE_TEXTS"); ok {
		cfg.Exclude.Texts = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "BASE_URL"); ok {
		cfg.Store.BaseURL = v
	}
	if v, ok := os.LookupEnv(envPrefix + "MEDIA_URL"); ok {
		cfg.Store.MediaURL = v
	}
	if v, ok := os.LookupEnv(envPrefix + "PUBLIC_ROOT"); ok {
		cfg.Paths.PublicRoot = v
	}
	if v, ok := os.LookupEnv(envPrefix + "CACHE_DIR"); ok {
		cfg.Paths.CacheDir = v
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	return nil
}

// splitList splits a comma-separated setting, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
