package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration read from gomprova.yaml and GOMPROVA_* env vars
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Measure  MeasureConfig  `mapstructure:"measure"`
	Document DocumentConfig `mapstructure:"document"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
	// FontDir optionally points at TrueType files used for rasterizing
	FontDir string `mapstructure:"font_dir"`
}

type MeasureConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// NamedStyle is a template style entry. Templates are listed rather than
// keyed because viper folds map keys to lower case.
type NamedStyle struct {
	Name          string `mapstructure:"name"`
	TemplateStyle `mapstructure:",squash"`
}

type DocumentConfig struct {
	Template   string       `mapstructure:"template"`
	LogoURL    string       `mapstructure:"logo_url"`
	Categories []string     `mapstructure:"categories"`
	Grades     []string     `mapstructure:"grades"`
	Classes    []string     `mapstructure:"classes"`
	Templates  []NamedStyle `mapstructure:"templates"`
}

// Load reads configuration. An empty path searches gomprova.yaml in the
// working directory and a missing file is not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("gomprova")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("GOMPROVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultDocument()

	v.SetDefault("log.mode", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.font_dir", "")
	v.SetDefault("measure.concurrency", 4)
	v.SetDefault("measure.retry_delay", 50*time.Millisecond)
	v.SetDefault("measure.max_attempts", 20)
	v.SetDefault("measure.debounce", 150*time.Millisecond)
	v.SetDefault("document.template", "Prova Global")
	v.SetDefault("document.logo_url", "")
	v.SetDefault("document.categories", def.Categories)
	v.SetDefault("document.grades", def.Grades)
	v.SetDefault("document.classes", def.Classes)
}

// DocumentConfiguration merges the file overrides onto DefaultDocument.
func (c *Config) DocumentConfiguration() Document {
	doc := DefaultDocument()
	dc := c.Document
	if len(dc.Categories) > 0 {
		doc.Categories = append([]string(nil), dc.Categories...)
	}
	if len(dc.Grades) > 0 {
		doc.Grades = append([]string(nil), dc.Grades...)
	}
	if len(dc.Classes) > 0 {
		doc.Classes = append([]string(nil), dc.Classes...)
	}
	doc.LogoURL = dc.LogoURL
	for _, ns := range dc.Templates {
		if ns.Name == "" {
			continue
		}
		st := doc.Style(ns.Name)
		if _, ok := doc.Templates[ns.Name]; !ok {
			st = TemplateStyle{}
		}
		if ns.Padding != "" {
			st.Padding = ns.Padding
		}
		if ns.FontSize != "" {
			st.FontSize = ns.FontSize
		}
		if ns.FontFamily != "" {
			st.FontFamily = ns.FontFamily
		}
		doc.Templates[ns.Name] = st
	}
	return doc
}
