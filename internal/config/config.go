package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PARAMCHECK_AUDIT_WORKERS.
const EnvPrefix = "PARAMCHECK"

type Config struct {
	Knowledge       KnowledgeConfig       `mapstructure:"knowledge"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Audit           AuditConfig           `mapstructure:"audit"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation"`
}

type KnowledgeConfig struct {
	Source         string `mapstructure:"source"` // "workbook" or "database"
	Workbook       string `mapstructure:"workbook"`
	ParameterSheet string `mapstructure:"parameter_sheet"`
	RuleSheet      string `mapstructure:"rule_sheet"`
}

type AuditConfig struct {
	SectorFilter string `mapstructure:"sector_filter"`
	Output       string `mapstructure:"output"` // "json", "yaml" or "text"
	MetricsFile  string `mapstructure:"metrics_file"`
}

type InstrumentationConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RetentionDays   int  `mapstructure:"retention_days"`
	BufferSize      int  `mapstructure:"buffer_size"`
	FlushIntervalMs int  `mapstructure:"flush_interval_ms"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// UsesDatabase reports whether anything in the configuration needs a connection.
func (c *Config) UsesDatabase() bool {
	return c.Knowledge.Source == "database" || c.Instrumentation.Enabled
}

// Load reads path, or app.yaml from the working directory when path is
// empty. A missing app.yaml is not an error; defaults and environment
// overrides still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("knowledge.source", "workbook")
	v.SetDefault("knowledge.workbook", "参数知识库.xlsx")
	v.SetDefault("knowledge.parameter_sheet", "参数信息")
	v.SetDefault("knowledge.rule_sheet", "校验规则")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "paramcheck")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("audit.sector_filter", "")
	v.SetDefault("audit.output", "text")
	v.SetDefault("audit.metrics_file", "")
	v.SetDefault("instrumentation.enabled", false)
	v.SetDefault("instrumentation.retention_days", 7)
	v.SetDefault("instrumentation.buffer_size", 500)
	v.SetDefault("instrumentation.flush_interval_ms", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Knowledge.Source {
	case "workbook", "database":
	default:
		return fmt.Errorf("knowledge.source must be workbook or database, got %q", c.Knowledge.Source)
	}
	switch c.Audit.Output {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("audit.output must be json, yaml or text, got %q", c.Audit.Output)
	}
	return nil
}
