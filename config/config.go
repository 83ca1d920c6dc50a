package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/BrianaLong/CS340---Client-Server-Development/crud"
	"github.com/BrianaLong/CS340---Client-Server-Development/mdb"
)

// EnvPrefix is prepended to every environment variable, e.g. CRUD_MONGO_HOST.
const EnvPrefix = "CRUD"

// Config holds command configuration.
type Config struct {
	Mongo MongoConfig
	Log   LogConfig
}

// MongoConfig describes the server, database and collection to use.
type MongoConfig struct {
	Scheme     string
	User       string
	Password   string
	Host       string
	Port       int
	Database   string
	Collection string

	// Provision applies the animal validator and indexes if the collection is created.
	Provision bool
	// Indexes are key lists like "Name" or "Name+Breed".
	// Given as a list in a config file or comma separated in the environment.
	Indexes []string
	Unique  bool

	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string

	// Optional directory for rotated JSON log files.
	Path         string
	Pattern      string
	RotationTime time.Duration
	MaxAge       time.Duration
}

// Load configuration from, lowest to highest priority: defaults,
// the optional config file, the environment (a .env file never overrides it) and command line flags.
// The args should not include the program name.
func Load(name string, args []string) (*Config, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configFile := flags.String("config", "", "configuration file (toml, yaml or json)")
	envFile := flags.String("env-file", ".env", "dotenv file, ignored if missing")
	flags.String("host", "localhost", "MongoDB host")
	flags.Int("port", 27017, "MongoDB port")
	flags.String("user", "", "MongoDB user")
	flags.String("database", "AAC", "database name")
	flags.String("collection", "animals", "collection name")
	flags.Bool("provision", false, "apply validator and indexes when creating the collection")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-path", "", "directory for rotated log files")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mongo.scheme", mdb.DefaultScheme)
	v.SetDefault("mongo.host", "localhost")
	v.SetDefault("mongo.port", 27017)
	v.SetDefault("mongo.database", "AAC")
	v.SetDefault("mongo.collection", "animals")
	v.SetDefault("mongo.indexes", "")
	v.SetDefault("mongo.connect_timeout", mdb.DefaultConnectTimeout)
	v.SetDefault("mongo.ping_timeout", mdb.DefaultPingTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.pattern", "crud-%Y-%m-%d.log")
	v.SetDefault("log.rotation_time", 24*time.Hour)
	v.SetDefault("log.max_age", 7*24*time.Hour)

	for key, flag := range map[string]string{
		"mongo.host":       "host",
		"mongo.port":       "port",
		"mongo.user":       "user",
		"mongo.database":   "database",
		"mongo.collection": "collection",
		"mongo.provision":  "provision",
		"log.level":        "log-level",
		"log.format":       "log-format",
		"log.path":         "log-path",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Mongo: MongoConfig{
			Scheme:         v.GetString("mongo.scheme"),
			User:           v.GetString("mongo.user"),
			Password:       v.GetString("mongo.password"),
			Host:           v.GetString("mongo.host"),
			Port:           v.GetInt("mongo.port"),
			Database:       v.GetString("mongo.database"),
			Collection:     v.GetString("mongo.collection"),
			Provision:      v.GetBool("mongo.provision"),
			Indexes:        indexList(v),
			Unique:         v.GetBool("mongo.unique"),
			ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
			PingTimeout:    v.GetDuration("mongo.ping_timeout"),
		},
		Log: LogConfig{
			Level:        v.GetString("log.level"),
			Format:       v.GetString("log.format"),
			Path:         v.GetString("log.path"),
			Pattern:      v.GetString("log.pattern"),
			RotationTime: v.GetDuration("log.rotation_time"),
			MaxAge:       v.GetDuration("log.max_age"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var (
	errNoHost       = errors.New("no host")
	errNoDatabase   = errors.New("no database")
	errNoCollection = errors.New("no collection")
)

// Validate checks that the configuration can be used to connect.
func (c *Config) Validate() error {
	if c.Mongo.Host == "" {
		return errNoHost
	}
	if c.Mongo.Port < 0 || c.Mongo.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Mongo.Port)
	}
	if c.Mongo.Database == "" {
		return errNoDatabase
	}
	if c.Mongo.Collection == "" {
		return errNoCollection
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Credentials for the configured server.
func (c *Config) Credentials() mdb.Credentials {
	return mdb.Credentials{
		Scheme:   c.Mongo.Scheme,
		User:     c.Mongo.User,
		Password: c.Mongo.Password,
		Host:     c.Mongo.Host,
		Port:     c.Mongo.Port,
	}
}

// Settings for crud.Connect().
// The validator is only applied when provisioning is enabled.
func (c *Config) Settings(validatorJSON string) crud.Settings {
	settings := crud.Settings{
		Credentials: c.Credentials(),
		Database:    c.Mongo.Database,
		Collection:  c.Mongo.Collection,
		Timeout: mdb.Timeout{
			Connect: c.Mongo.ConnectTimeout,
			Ping:    c.Mongo.PingTimeout,
		},
	}
	if c.Mongo.Provision {
		settings.ValidatorJSON = validatorJSON
		settings.Indexes = c.IndexDescriptions()
	}
	return settings
}

// IndexDescriptions parses the configured index key lists.
func (c *Config) IndexDescriptions() []*mdb.IndexDescription {
	descriptions := make([]*mdb.IndexDescription, 0, len(c.Mongo.Indexes))
	for _, index := range c.Mongo.Indexes {
		keys := splitKeys(index)
		if len(keys) > 0 {
			descriptions = append(descriptions, mdb.NewIndexDescription(c.Mongo.Unique, keys...))
		}
	}
	return descriptions
}

// indexList reads mongo.indexes as either a comma separated string or a list.
func indexList(v *viper.Viper) []string {
	if list, ok := v.Get("mongo.indexes").(string); ok {
		return splitList(list)
	}
	items := make([]string, 0)
	for _, item := range v.GetStringSlice("mongo.indexes") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func splitList(list string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func splitKeys(index string) []string {
	keys := make([]string, 0)
	for _, key := range strings.Split(index, "+") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
