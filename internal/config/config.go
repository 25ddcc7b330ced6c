package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rezonia/einvoice-gateway/internal/logging"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

// EnvPrefix prefixes every environment override, e.g.
// EINVOICE_VENDORS_ECPAY_TEST_HASH_KEY
const EnvPrefix = "EINVOICE"

// Config holds all application configuration
type Config struct {
	Mode    string                   `mapstructure:"mode"`
	Server  ServerConfig             `mapstructure:"server"`
	Relay   RelayConfig              `mapstructure:"relay"`
	Store   StoreConfig              `mapstructure:"store"`
	Logger  LoggerConfig             `mapstructure:"logger"`
	Vendors map[string]VendorSection `mapstructure:"vendors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Debug        bool          `mapstructure:"debug"`
}

// RelayConfig selects how vendor calls leave the process. With an empty URL
// calls go straight to the vendors; otherwise they are posted to the relay.
type RelayConfig struct {
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ForwardTimeout time.Duration `mapstructure:"forward_timeout"`
}

// StoreConfig selects the invoice store; an empty path keeps it in memory
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// VendorSection is the credential block of one vendor
type VendorSection struct {
	Test       map[string]string `mapstructure:"test"`
	Production map[string]string `mapstructure:"production"`
}

// Load reads configuration from an optional YAML file and the environment
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindCredentialEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(model.ModeTest))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.debug", false)

	v.SetDefault("relay.url", "")
	v.SetDefault("relay.timeout", 10*time.Second)
	v.SetDefault("relay.forward_timeout", 10*time.Second)

	v.SetDefault("store.path", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stderr")
}

// bindCredentialEnv registers every credential key so it can be supplied
// through the environment alone
func bindCredentialEnv(v *viper.Viper) {
	for _, vd := range model.Vendors() {
		p, _ := vendor.NewProtocol(vd)
		for _, mode := range []model.Mode{model.ModeTest, model.ModeProduction} {
			for _, field := range p.RequiredFields() {
				key := fmt.Sprintf("vendors.%s.%s.%s", vd, mode, field)
				_ = v.BindEnv(key)
			}
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch model.Mode(c.Mode) {
	case model.ModeTest, model.ModeProduction:
	default:
		return fmt.Errorf("mode must be test or production, got %q", c.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Relay.Timeout <= 0 {
		return errors.New("relay.timeout must be positive")
	}
	if c.Relay.ForwardTimeout <= 0 {
		return errors.New("relay.forward_timeout must be positive")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	for name := range c.Vendors {
		if _, ok := model.ParseVendor(name); !ok {
			return fmt.Errorf("vendors.%s: unknown vendor", name)
		}
	}
	return nil
}

// DefaultMode returns the configured vendor environment
func (c *Config) DefaultMode() model.Mode {
	return model.Mode(c.Mode)
}

// Credentials returns the credential sets keyed by vendor
func (c *Config) Credentials() map[model.Vendor]model.VendorCredentials {
	out := make(map[model.Vendor]model.VendorCredentials, len(c.Vendors))
	for name, section := range c.Vendors {
		vd, ok := model.ParseVendor(name)
		if !ok {
			continue
		}
		out[vd] = model.VendorCredentials{
			Test:       model.Credential(section.Test),
			Production: model.Credential(section.Production),
		}
	}
	return out
}

// LoggingConfig adapts the logger section for logging.New
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Logger.Level,
		Format:     c.Logger.Format,
		OutputPath: c.Logger.OutputPath,
	}
}

// Address returns host:port for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Exists reports whether path names a readable config file
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
