package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const (
	DefaultProvider     = "mysql"
	DefaultUser         = "root"
	DefaultHost         = "localhost"
	DefaultMySQLPort    = 3306
	DefaultPostgresPort = 5432
	DefaultDatabase     = "mydb"
	DefaultPrimaryKey   = "id"
)

type Config struct {
	Database Database     `json:"database" mapstructure:"database"`
	Load     LoadSettings `json:"load" mapstructure:"load"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	Name     string `json:"name" mapstructure:"name"` // file path for sqlite
	// PrimaryKey is read back with RETURNING on postgres.
	PrimaryKey string `json:"primary_key" mapstructure:"primary_key"`
}

// LoadSettings controls one run of the loader.
type LoadSettings struct {
	Seed      int64  `json:"seed" mapstructure:"seed"` // 0 = time based
	GateNulls bool   `json:"gate_nulls" mapstructure:"gate_nulls"`
	SkipRelax bool   `json:"skip_relax" mapstructure:"skip_relax"`
	Verify    bool   `json:"verify" mapstructure:"verify"`
	Report    string `json:"report" mapstructure:"report"`
	Verbose   bool   `json:"verbose" mapstructure:"verbose"`
	NoPrompt  bool   `json:"no_prompt" mapstructure:"no_prompt"`
}

var supportedProviders = []string{"mysql", "postgresql", "postgres", "sqlite", "sqlite3"}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills blank fields only; values that came from flags, env or
// the prompt are kept.
func (c *Config) ApplyDefaults() {
	c.Database.Provider = strings.ToLower(strings.TrimSpace(c.Database.Provider))
	if c.Database.Provider == "" {
		c.Database.Provider = DefaultProvider
	}
	if c.Database.User == "" {
		c.Database.User = DefaultUser
	}
	if c.Database.Host == "" {
		c.Database.Host = DefaultHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = c.DefaultPort()
	}
	if c.Database.Name == "" {
		c.Database.Name = DefaultDatabase
	}
	if c.Database.PrimaryKey == "" {
		c.Database.PrimaryKey = DefaultPrimaryKey
	}
}

// DefaultPort is the port used when none is configured for the current provider.
func (c *Config) DefaultPort() int {
	switch c.Database.Provider {
	case "postgresql", "postgres":
		return DefaultPostgresPort
	default:
		return DefaultMySQLPort
	}
}

func (c *Config) Validate() error {
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.IsSQLite() {
		if c.Database.Name == "" {
			return fmt.Errorf("database name (sqlite file path) cannot be empty")
		}
		return nil
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	return nil
}

func (c *Config) IsSQLite() bool {
	return c.Database.Provider == "sqlite" || c.Database.Provider == "sqlite3"
}

// DSN returns the driver specific data source name for the configured provider.
func (c *Config) DSN() string {
	db := c.Database
	addr := net.JoinHostPort(db.Host, strconv.Itoa(db.Port))

	switch db.Provider {
	case "postgresql", "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     addr,
			Path:     "/" + db.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case "sqlite", "sqlite3":
		return db.Name
	default:
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = db.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	}
}

// Redacted describes the connection target without the password.
func (c *Config) Redacted() string {
	if c.IsSQLite() {
		return fmt.Sprintf("sqlite://%s", c.Database.Name)
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s", c.Database.Provider, c.Database.User, c.Database.Host, c.Database.Port, c.Database.Name)
}
