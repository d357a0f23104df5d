package stencil

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by ConfigFromEnvironment
const EnvPrefix = "COVERLETTER"

// Config contains all configuration options for the generation engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// DocumentKind is the fixed suffix of every output file name
	DocumentKind string `mapstructure:"document_kind" yaml:"document_kind"`
	// PackageExtension is the extension given to generated documents
	PackageExtension string `mapstructure:"package_extension" yaml:"package_extension"`
	// RequiredTokens must all be present in a template before it is used
	RequiredTokens []string `mapstructure:"required_tokens" yaml:"required_tokens"`
	// Export configures the optional fixed-layout export after saving
	Export ExportConfig `mapstructure:"export" yaml:"export"`
	// Cache controls the placeholder scan cache of Engine.Placeholders
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
}

// ExportConfig configures the external document converter
type ExportConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Format        string        `mapstructure:"format" yaml:"format"`
	ConverterPath string        `mapstructure:"converter_path" yaml:"converter_path"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		DocumentKind:     "Cover Letter",
		PackageExtension: ".docx",
		RequiredTokens:   RequiredTokens(),
		Export: ExportConfig{
			Enabled:       false,
			Format:        "pdf",
			ConverterPath: "soffice",
			Timeout:       2 * time.Minute,
		},
		Cache: CacheConfig{
			MaxSize: 64,
		},
	}
}

// SetDefaults registers the default configuration on v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("document_kind", d.DocumentKind)
	v.SetDefault("package_extension", d.PackageExtension)
	v.SetDefault("required_tokens", d.RequiredTokens)
	v.SetDefault("export.enabled", d.Export.Enabled)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.converter_path", d.Export.ConverterPath)
	v.SetDefault("export.timeout", d.Export.Timeout)
	v.SetDefault("cache.max_size", d.Cache.MaxSize)
	v.SetDefault("cache.ttl", d.Cache.TTL)
}

// NewViper returns a viper instance bound to the COVERLETTER_* environment
// with defaults registered. COVERLETTER_EXPORT_ENABLED maps to export.enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	return ConfigFromViper(NewViper())
}

// ConfigFromViper reads a configuration from v. Keys that are not set fall
// back to the defaults.
func ConfigFromViper(v *viper.Viper) *Config {
	config := DefaultConfig()

	if val := v.GetString("log_level"); val != "" {
		config.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if val := v.GetString("document_kind"); val != "" {
		config.DocumentKind = val
	}
	if val := v.GetString("package_extension"); val != "" {
		config.PackageExtension = val
	}
	if tokens := tokenList(v.Get("required_tokens")); len(tokens) > 0 {
		config.RequiredTokens = tokens
	}

	config.Export.Enabled = v.GetBool("export.enabled")
	if val := v.GetString("export.format"); val != "" {
		config.Export.Format = val
	}
	if val := v.GetString("export.converter_path"); val != "" {
		config.Export.ConverterPath = val
	}
	if val := v.GetDuration("export.timeout"); val > 0 {
		config.Export.Timeout = val
	}

	config.Cache.MaxSize = v.GetInt("cache.max_size")
	config.Cache.TTL = v.GetDuration("cache.ttl")

	return config
}

// tokenList accepts a YAML list or a comma-separated string. Tokens contain
// spaces, so whitespace splitting is not an option.
func tokenList(raw interface{}) []string {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(v, ",")
	case []string:
		items = v
	case []interface{}:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return nil
	}

	var tokens []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			tokens = append(tokens, item)
		}
	}
	return tokens
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides
	config.RequiredTokens = append([]string(nil), overrides.RequiredTokens...)

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.DocumentKind == "" {
		config.DocumentKind = defaults.DocumentKind
	}
	if config.PackageExtension == "" {
		config.PackageExtension = defaults.PackageExtension
	}
	if len(config.RequiredTokens) == 0 {
		config.RequiredTokens = defaults.RequiredTokens
	}
	if config.Export.Format == "" {
		config.Export.Format = defaults.Export.Format
	}
	if config.Export.ConverterPath == "" {
		config.Export.ConverterPath = defaults.Export.ConverterPath
	}
	if config.Export.Timeout == 0 {
		config.Export.Timeout = defaults.Export.Timeout
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if strings.TrimSpace(c.DocumentKind) == "" {
		return errors.New("document kind cannot be empty")
	}

	if !strings.HasPrefix(c.PackageExtension, ".") || len(c.PackageExtension) < 2 {
		return errors.New("package extension must start with a dot: " + c.PackageExtension)
	}

	for _, token := range c.RequiredTokens {
		if !strings.HasPrefix(token, TokenOpen) || !strings.HasSuffix(token, TokenClose) || len(token) <= len(TokenOpen)+len(TokenClose) {
			return fmt.Errorf("required token %q must have the form {NAME}", token)
		}
	}

	if c.Export.Timeout < 0 {
		return errors.New("export timeout cannot be negative")
	}

	if c.Export.Enabled && strings.TrimSpace(c.Export.Format) == "" {
		return errors.New("export format cannot be empty when export is enabled")
	}

	if c.Cache.MaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.Cache.TTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	configCopy := *globalConfig
	configCopy.RequiredTokens = append([]string(nil), globalConfig.RequiredTokens...)
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// outside the lock: the logger reads the config back
	UpdateLoggerFromConfig()
}
