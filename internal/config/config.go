package config

import (
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type S3Config struct {
	Endpoint    string `mapstructure:"endpoint"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	IssueBucket string `mapstructure:"issue_bucket"`
	CoverBucket string `mapstructure:"cover_bucket"`
	// PublicHost is the provider domain object URLs are derived from,
	// e.g. "s3.amazonaws.com".
	PublicHost string `mapstructure:"public_host"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	S3      S3Config      `mapstructure:"s3"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// continue if not found
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "magazine"
	}
	if cfg.S3.IssueBucket == "" {
		cfg.S3.IssueBucket = "issues"
	}
	if cfg.S3.CoverBucket == "" {
		cfg.S3.CoverBucket = "covers"
	}
	if cfg.S3.PublicHost == "" {
		cfg.S3.PublicHost = "s3.amazonaws.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &cfg, nil
}
