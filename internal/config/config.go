package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DatabaseConfig holds the connection details of a database server. The database name is
// chosen per call, as a single server hosts several logical databases.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlserver or pgx
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"` // only used by pgx
}

// PrerequisiteConfig is a dependency task as written in the config file. Pointers and nil
// slices mark keys that were left out.
type PrerequisiteConfig struct {
	Name          string `mapstructure:"name"`
	LogTaskID     *int   `mapstructure:"log_task_id"`
	AllowedStatus []int  `mapstructure:"allowed_status"`
}

// PSConfig holds the application configuration
type PSConfig struct {
	Database struct {
		DatabaseConfig   `mapstructure:",squash"`
		LogDatabase      string `mapstructure:"log_database"`      // Holds tLog and the SP_Log* procedures
		CalendarDatabase string `mapstructure:"calendar_database"` // Holds the holiday calendar function
	} `mapstructure:"database"`

	Destination struct {
		DatabaseConfig `mapstructure:",squash"`
		Name           string `mapstructure:"name"`
		Table          string `mapstructure:"table"`
		ChunkSize      int    `mapstructure:"chunk_size"`
	} `mapstructure:"destination"`

	Panel struct {
		BaseURL    string `mapstructure:"base_url"`
		Client     string `mapstructure:"client"`
		Secret     string `mapstructure:"secret"`
		DateFrom   string `mapstructure:"date_from"`
		PerPage    int64  `mapstructure:"per_page"`
		Include    string `mapstructure:"include"`
		TimeoutSec int    `mapstructure:"timeout_sec"`
	} `mapstructure:"panel"`

	Email struct {
		SMTPHost  string   `mapstructure:"smtp_host"`
		SMTPPort  int      `mapstructure:"smtp_port"`
		Sender    string   `mapstructure:"sender"`
		To        []string `mapstructure:"to"`
		Cc        []string `mapstructure:"cc"`
		Bcc       []string `mapstructure:"bcc"`
		AttachLog bool     `mapstructure:"attach_log"`
	} `mapstructure:"email"`

	Job struct {
		Name       string `mapstructure:"name"`
		LogTaskID  int    `mapstructure:"log_task_id"`
		StatusFlag int    `mapstructure:"status_flag"`
		LogMsg     string `mapstructure:"log_msg"`
	} `mapstructure:"job"`

	Gate struct {
		SkipHolidays   bool                 `mapstructure:"skip_holidays"`
		IncludeWeekend int                  `mapstructure:"include_weekend"`
		Prerequisites  []PrerequisiteConfig `mapstructure:"prerequisites"`
	} `mapstructure:"gate"`

	Scheduler struct {
		Cron     string `mapstructure:"cron"`
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"scheduler"`

	Log struct {
		Dir    string `mapstructure:"dir"`
		Prefix string `mapstructure:"prefix"`
	} `mapstructure:"log"`

	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig reads the configuration from a file or environment variables
func LoadConfig(configPaths ...string) (*PSConfig, error) {
	// can specify config path from environment
	if path, exists := os.LookupEnv("PS_CONFIG_PATH"); exists {
		configPaths = append(configPaths, path)
	}
	for _, path := range configPaths {
		fi, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, err
		}
		mode := fi.Mode()
		switch {
		case mode.IsRegular():
			v := newViper()
			v.SetConfigFile(path)
			config, err := readConfig(v, path)
			if err != nil {
				continue
			}
			return config, nil

		case mode.IsDir():
			v := newViper()
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			config, err := readConfig(v, path)
			if err != nil {
				continue
			}
			return config, nil
		}
	}

	v := newViper()
	// finally read from current working directory
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	cwd, _ := os.Getwd()

	config, err := readConfig(v, cwd)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// newViper creates a viper instance with all the default values set
func newViper() *viper.Viper {
	v := viper.New()

	// Run-log database defaults
	v.SetDefault("database.driver", "sqlserver")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 1433)
	v.SetDefault("database.user", "sa")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_database", "SGTAMProd")
	v.SetDefault("database.calendar_database", "EvoProd")

	// Destination defaults
	v.SetDefault("destination.driver", "sqlserver")
	v.SetDefault("destination.host", "localhost")
	v.SetDefault("destination.port", 1433)
	v.SetDefault("destination.user", "sa")
	v.SetDefault("destination.password", "")
	v.SetDefault("destination.sslmode", "disable")
	v.SetDefault("destination.name", "SGTAMProd")
	v.SetDefault("destination.table", "tWakoopaParticipants")
	v.SetDefault("destination.chunk_size", 50)

	// Panel API defaults
	v.SetDefault("panel.base_url", "https://wakoopa.wkp.io/api/v1")
	v.SetDefault("panel.date_from", "2023-03-31")
	v.SetDefault("panel.per_page", int64(999999999999))
	v.SetDefault("panel.include", "devices")
	v.SetDefault("panel.timeout_sec", 300)

	// Email defaults
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 25)
	v.SetDefault("email.sender", "panelsync@localhost")
	v.SetDefault("email.attach_log", true)

	// Job defaults
	v.SetDefault("job.name", "tWakoopaParticipants")
	v.SetDefault("job.log_task_id", -99)
	v.SetDefault("job.status_flag", 2)
	v.SetDefault("job.log_msg", "task has started")

	// Gate defaults
	v.SetDefault("gate.skip_holidays", false)
	v.SetDefault("gate.include_weekend", 1)

	// Scheduler defaults
	v.SetDefault("scheduler.cron", "0 0 6 * * *")
	v.SetDefault("scheduler.timezone", "Asia/Singapore")

	// Log file defaults
	v.SetDefault("log.dir", "log")
	v.SetDefault("log.prefix", "tWakoopaParticipant")

	// Log level default
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("PS")                               // Prefix for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env vars
	v.AutomaticEnv()                                   // Read environment variables

	return v
}

func readConfig(v *viper.Viper, path string) (*PSConfig, error) {
	var config PSConfig

	if err := v.ReadInConfig(); err != nil {
		log.Warn().
			Str("path", path).
			Msg("Could not read config file")
		return nil, err
	}
	if err := v.Unmarshal(&config); err != nil {
		log.Warn().
			Str("path", path).
			Msg("Could not unmarshall config")
		return nil, err
	}

	return &config, nil
}

// Level parses the configured log level, falling back to info
func (c *PSConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// GetDatabaseURL returns a formatted connection string for the named database on the server
func (c *DatabaseConfig) GetDatabaseURL(name string) string {
	host := c.Host
	if c.Port > 0 {
		host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}

	switch c.Driver {
	case "pgx", "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     host,
			Path:     name,
			RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
		}
		return u.String()
	case "sqlite":
		// sqlite has no server, the name is the dsn
		return name
	default:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     host,
			RawQuery: url.Values{"database": {name}}.Encode(),
		}
		return u.String()
	}
}

// SMTPAddr returns the host:port of the mail relay
func (c *PSConfig) SMTPAddr() string {
	return c.Email.SMTPHost + ":" + strconv.Itoa(c.Email.SMTPPort)
}
