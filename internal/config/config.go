package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Printer PrinterConfig
	Print   PrintConfig
	Render  RenderConfig
	Tags    TagsConfig
	Log     LogConfig
}

// PrinterConfig describes how to reach the printer.
type PrinterConfig struct {
	Address           string // preset address, used until a tag is scanned
	Channel           int    // RFCOMM channel
	BaudRate          int
	Language          string // zpl or tspl
	DialTimeout       time.Duration
	PrintWidthSetting string // SGD setting holding the print width in dots
	Density           int    // TSPL only
}

// PrintConfig holds content settings for the print button.
type PrintConfig struct {
	Mode         string // text or image
	Padding      int    // horizontal padding in dots, applied on each side
	YOffset      int
	TemplatePath string // HTML template for image mode, empty = built-in
}

// RenderConfig holds settings for the HTML rasterizer.
type RenderConfig struct {
	Width     int
	Timeout   time.Duration
	RemoteURL string // remote Chrome DevTools endpoint, empty = launch locally
	BaseURL   string
	NoSandbox bool
}

// TagsConfig holds the scan sources.
type TagsConfig struct {
	ListenAddr   string // phone/HTTP source, empty = disabled
	MDNS         bool
	LibNFCDevice string // libnfc connstring, "auto" = first device, empty = disabled
	PollInterval time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

var (
	ErrInvalidLanguage = errors.New("printer.language must be zpl or tspl")
	ErrInvalidMode     = errors.New("print.mode must be text or image")
)

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with TAGPRINT_ prefix (e.g., TAGPRINT_PRINTER_ADDRESS)
// 2. The config file (configFile, or tagprint.toml found on the search path)
// 3. Built-in defaults
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tagprint")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tagprint")
		v.AddConfigPath("/etc/tagprint")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TAGPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Printer: PrinterConfig{
			Address:           v.GetString("printer.address"),
			Channel:           v.GetInt("printer.channel"),
			BaudRate:          v.GetInt("printer.baud_rate"),
			Language:          strings.ToLower(v.GetString("printer.language")),
			DialTimeout:       v.GetDuration("printer.dial_timeout"),
			PrintWidthSetting: v.GetString("printer.print_width_setting"),
			Density:           v.GetInt("printer.density"),
		},
		Print: PrintConfig{
			Mode:         strings.ToLower(v.GetString("print.mode")),
			Padding:      v.GetInt("print.padding"),
			YOffset:      v.GetInt("print.y_offset"),
			TemplatePath: v.GetString("print.template_path"),
		},
		Render: RenderConfig{
			Width:     v.GetInt("render.width"),
			Timeout:   v.GetDuration("render.timeout"),
			RemoteURL: v.GetString("render.remote_url"),
			BaseURL:   v.GetString("render.base_url"),
			NoSandbox: v.GetBool("render.no_sandbox"),
		},
		Tags: TagsConfig{
			ListenAddr:   v.GetString("tags.listen_addr"),
			MDNS:         v.GetBool("tags.mdns"),
			LibNFCDevice: v.GetString("tags.libnfc_device"),
			PollInterval: v.GetDuration("tags.poll_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("printer.channel", 1)
	v.SetDefault("printer.baud_rate", 115200)
	v.SetDefault("printer.language", "zpl")
	v.SetDefault("printer.dial_timeout", 15*time.Second)
	v.SetDefault("printer.print_width_setting", "ezpl.print_width")
	v.SetDefault("printer.density", 10)

	v.SetDefault("print.mode", "text")
	v.SetDefault("print.padding", 20)
	v.SetDefault("print.y_offset", 100)

	v.SetDefault("render.width", 1024)
	v.SetDefault("render.timeout", 15*time.Second)

	v.SetDefault("tags.listen_addr", ":8765")
	v.SetDefault("tags.mdns", true)
	v.SetDefault("tags.poll_interval", 250*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

func (c *Config) validate() error {
	switch c.Printer.Language {
	case "zpl", "tspl":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, c.Printer.Language)
	}
	switch c.Print.Mode {
	case "text", "image":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Print.Mode)
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("render.width must be positive, got %d", c.Render.Width)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be positive, got %s", c.Render.Timeout)
	}
	if c.Print.Padding < 0 {
		return fmt.Errorf("print.padding must not be negative, got %d", c.Print.Padding)
	}
	return nil
}
