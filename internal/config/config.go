package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"survey-service/internal/models"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment
// variables.
type Config struct {
	ListenAddr    string   `mapstructure:"listen_addr"`    // HTTP bind address
	MongoURI      string   `mapstructure:"-"`              // connection string loaded from environment
	DatabaseName  string   `mapstructure:"database_name"`  // Mongo database name
	QuestionsPath string   `mapstructure:"questions_path"` // path to the catalogue JSON file
	CORSOrigins   []string `mapstructure:"cors_origins"`

	RabbitURI      string `mapstructure:"-"` // optional, loaded from environment
	RabbitExchange string `mapstructure:"-"`

	Attention Attention `mapstructure:"attention"`
	Quotas    Quotas    `mapstructure:"quotas"`
}

// Attention configures the check cadence.
type Attention struct {
	Interval int `mapstructure:"interval"` // checks fire every Interval answered questions
}

// Quotas holds the per-region participant limits.
type Quotas struct {
	North   int `mapstructure:"north"`
	South   int `mapstructure:"south"`
	East    int `mapstructure:"east"`
	West    int `mapstructure:"west"`
	Central int `mapstructure:"central"`
}

// Limits returns the quota section keyed by region.
func (q Quotas) Limits() map[models.Region]int {
	return map[models.Region]int{
		models.RegionNorth:   q.North,
		models.RegionSouth:   q.South,
		models.RegionEast:    q.East,
		models.RegionWest:    q.West,
		models.RegionCentral: q.Central,
	}
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("database_name", "survey_service")
	v.SetDefault("questions_path", "data/questions.json")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("attention.interval", 7)
	v.SetDefault("quotas.north", 10)
	v.SetDefault("quotas.south", 10)
	v.SetDefault("quotas.east", 10)
	v.SetDefault("quotas.west", 10)
	v.SetDefault("quotas.central", 10)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("mongo_uri", "MONGO_URI")
	_ = v.BindEnv("rabbitmq_uri", "RABBITMQ_URI")
	_ = v.BindEnv("rabbitmq_exchange", "RABBITMQ_EXCHANGE")
	_ = v.BindEnv("listen_addr", "LISTEN_ADDR")
	_ = v.BindEnv("questions_path", "QUESTIONS_PATH")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.MongoURI = v.GetString("mongo_uri")
	if cfg.MongoURI == "" {
		return nil, ErrMissingEnvironmentVariables
	}
	cfg.RabbitURI = v.GetString("rabbitmq_uri")
	cfg.RabbitExchange = v.GetString("rabbitmq_exchange")

	if cfg.Attention.Interval <= 0 {
		return nil, fmt.Errorf("attention.interval must be positive, got %d", cfg.Attention.Interval)
	}
	return &cfg, nil
}
