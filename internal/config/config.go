package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "json" or "console"
	} `yaml:"log"`

	Database struct {
		Driver   string `yaml:"driver"` // "mysql" or "postgres"
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Gemini struct {
		APIKey             string `yaml:"apiKey"`
		ProModel           string `yaml:"proModel"`
		FlashModel         string `yaml:"flashModel"`
		AnalysisTimeoutSec int    `yaml:"analysisTimeoutSec"`
		ExtractTimeoutSec  int    `yaml:"extractTimeoutSec"`
	} `yaml:"gemini"`

	Limits struct {
		MediaPayloadCap int `yaml:"mediaPayloadCap"`
		TruncatedPrefix int `yaml:"truncatedPrefix"`
		MaxBodyBytes    int `yaml:"maxBodyBytes"`
	} `yaml:"limits"`

	Share struct {
		DefaultTTLHours int `yaml:"defaultTtlHours"`
	} `yaml:"share"`

	Auth struct {
		// APIKeys maps user id to its API key. The service treats the
		// user id as an opaque capability; identity lives elsewhere.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads a yaml config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Gemini.ProModel == "" {
		c.Gemini.ProModel = "gemini-3-pro-preview"
	}
	if c.Gemini.FlashModel == "" {
		c.Gemini.FlashModel = "gemini-3-flash-preview"
	}
	if c.Gemini.AnalysisTimeoutSec == 0 {
		c.Gemini.AnalysisTimeoutSec = 180
	}
	if c.Gemini.ExtractTimeoutSec == 0 {
		c.Gemini.ExtractTimeoutSec = 30
	}
	if c.Limits.MediaPayloadCap == 0 {
		c.Limits.MediaPayloadCap = 500_000
	}
	if c.Limits.TruncatedPrefix == 0 {
		c.Limits.TruncatedPrefix = 500
	}
	if c.Limits.MaxBodyBytes == 0 {
		c.Limits.MaxBodyBytes = 32 << 20
	}
	if c.Share.DefaultTTLHours == 0 {
		c.Share.DefaultTTLHours = 72
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillRate == 0 {
		c.RateLimit.RefillRate = 5
	}
}

// MySQLDSN builds the DSN for the mysql driver.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the DSN for the pq driver.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
