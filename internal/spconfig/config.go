package spconfig

import (
	"fmt"
	"log/syslog"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SiteName        string         `yaml:"sitename"`
	BaseURL         string         `yaml:"baseurl"`
	TrustedProxies  []string       `yaml:"trustedproxies"`
	TrustedPlatform string         `yaml:"trustedplatform"`
	Database        DatabaseConfig `yaml:"database"`
	Redis           RedisConfig    `yaml:"redis"`
	StaticPath      string         `yaml:"staticpath"`
	User            UserConfig     `yaml:"user"`
	Production      bool           `yaml:"production"`
	Listen          ListenConfig   `yaml:"listen"`
	Logger          LoggerConfig   `yaml:"logger"`
	Tracking        TrackingConfig `yaml:"tracking"`
	Geo             GeoConfig      `yaml:"geo"`
	Mail            MailConfig     `yaml:"mail"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

type ListenConfig struct {
	Website string `yaml:"website"`
}

type UserConfig struct {
	Login string `yaml:"login"`
	Pass  string `yaml:"pass"`
	Hash  string `yaml:"hash"`
}

type DatabaseConfig struct {
	Db   string `yaml:"db"`
	Path string `yaml:"path"`
	Dsn  string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Db   int    `yaml:"db"`
}

// TrackingConfig tunes the visit tracker. RateLimit is requests per minute
// per client IP on the track endpoint. RetentionDays of zero disables the
// nightly cleanup of old page views and idle sessions.
type TrackingConfig struct {
	RateLimit     int `yaml:"ratelimit"`
	RetentionDays int `yaml:"retentiondays"`
}

// GeoConfig controls IP enrichment. IPInfoToken enables lookups against
// ipinfo.io; MMDBPath points at a local MaxMind database used when no token
// is configured or the API call fails. Both empty disables enrichment.
type GeoConfig struct {
	IPInfoToken string `yaml:"ipinfotoken"`
	MMDBPath    string `yaml:"mmdbpath"`
}

type MailConfig struct {
	ResendKey string `yaml:"resendkey"`
}

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		SiteName: "IT Services Co",
		BaseURL:  "http://localhost:8080",
		Database: DatabaseConfig{
			Db:   "sqlite",
			Path: "./sitepulse.db",
		},
		User: UserConfig{
			Login: "admin",
			Pass:  "admin1234",
		},
		StaticPath: "./static",
		Production: false,
		Logger: LoggerConfig{
			Level: "info",
			File: LoggerFileConfig{
				Enable: false,
			},
			Syslog: LoggerSyslogConfig{
				Enable: false,
			},
		},
		Listen: ListenConfig{
			Website: "0.0.0.0:8080",
		},
		Tracking: TrackingConfig{
			RateLimit:     30,
			RetentionDays: 90,
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:8000"
		example.Production = true
		example.Database.Path = "/var/lib/sitepulse/sqlite.db"
		example.StaticPath = "/var/lib/sitepulse/static"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/sitepulse/sitepulse.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/sitepulse/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %v", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("yaml parse error: %v", err)
	}

	return &config, nil
}

// Validate fills defaults and rejects configurations the server cannot
// start with.
func (c *Config) Validate() error {
	switch c.Database.Db {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path cannot be empty")
		}
	case "mysql":
		if c.Database.Dsn == "" {
			return fmt.Errorf("database.dsn cannot be empty")
		}
	case "":
		return fmt.Errorf("database.db cannot be empty")
	default:
		return fmt.Errorf("database.db must be sqlite or mysql")
	}

	if c.Listen.Website == "" {
		c.Listen.Website = "localhost:8080"
	}
	if c.Tracking.RateLimit <= 0 {
		c.Tracking.RateLimit = 30
	}
	return nil
}

func CreateExample(shouldCreateExample bool, configFile string) {
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}

	_, err := os.Stat(configFile)
	if err != nil && os.IsNotExist(err) {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "sitepulse.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("example creation failed: %v", err)
	}

	fmt.Printf("✅ Example file created: %s\n", filename)
	fmt.Println("⚠️  user.pass will be hashed into user.hash with argon2 on first start")
	return nil
}
