package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendChromeDP = "chromedp"
	BackendSelenium = "selenium"
	BackendHTTP     = "http"
)

// Config holds the settings shared by the CLIs and the API server.
type Config struct {
	DataDir        string
	Backend        string
	Headless       bool
	ChromePath     string
	DriverPath     string
	DriverBasePort int
	DriverPorts    int
	AcceptLanguage string
	UserAgent      string
	JPEGQuality    int

	MongoURI      string
	MongoDatabase string

	AWSRegion     string
	AWSBucketName string
	S3Prefix      string

	Port              string
	MaxConcurrentRuns int
	LogLevel          string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           "data",
		Backend:           BackendChromeDP,
		Headless:          true,
		DriverPath:        "/usr/local/bin/chromedriver",
		DriverBasePort:    4444,
		DriverPorts:       16,
		AcceptLanguage:    "ru-RU,ru;q=0.9",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		JPEGQuality:       90,
		MongoDatabase:     "catalog_scraper",
		AWSRegion:         "us-east-1",
		S3Prefix:          "runs",
		Port:              "8080",
		MaxConcurrentRuns: 2,
		LogLevel:          "info",
	}
}

// LoadConfig loads a .env file if present and overlays environment variables
// on top of DefaultConfig.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	if v, ok := EnvString("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := EnvString("BROWSER_BACKEND"); ok {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok, err := EnvBool("HEADLESS"); err != nil {
		return nil, err
	} else if ok {
		cfg.Headless = v
	}
	if v, ok := EnvString("CHROME_PATH"); ok {
		cfg.ChromePath = v
	}
	if v, ok := EnvString("CHROMEDRIVER_PATH"); ok {
		cfg.DriverPath = v
	}
	if v, ok, err := EnvInt("SELENIUM_BASE_PORT"); err != nil {
		return nil, err
	} else if ok {
		cfg.DriverBasePort = v
	}
	if v, ok, err := EnvInt("SELENIUM_PORT_RANGE"); err != nil {
		return nil, err
	} else if ok {
		cfg.DriverPorts = v
	}
	if v, ok := EnvString("ACCEPT_LANGUAGE"); ok {
		cfg.AcceptLanguage = v
	}
	if v, ok := EnvString("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok, err := EnvInt("SCREENSHOT_QUALITY"); err != nil {
		return nil, err
	} else if ok {
		cfg.JPEGQuality = v
	}
	if v, ok := EnvString("MONGO_URI"); ok {
		cfg.MongoURI = v
	}
	if v, ok := EnvString("MONGO_DATABASE"); ok {
		cfg.MongoDatabase = v
	}
	if v, ok := EnvString("AWS_REGION"); ok {
		cfg.AWSRegion = v
	}
	if v, ok := EnvString("AWS_BUCKET_NAME"); ok {
		cfg.AWSBucketName = v
	}
	if v, ok := EnvString("S3_PREFIX"); ok {
		cfg.S3Prefix = strings.Trim(v, "/")
	}
	if v, ok := EnvString("PORT"); ok {
		cfg.Port = v
	}
	if v, ok, err := EnvInt("MAX_CONCURRENT_RUNS"); err != nil {
		return nil, err
	} else if ok {
		cfg.MaxConcurrentRuns = v
	}
	if v, ok := EnvString("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	switch c.Backend {
	case BackendChromeDP, BackendSelenium, BackendHTTP:
	default:
		return fmt.Errorf("browser backend must be %s, %s, or %s", BackendChromeDP, BackendSelenium, BackendHTTP)
	}
	if c.AcceptLanguage == "" {
		return fmt.Errorf("accept language cannot be empty")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 99 {
		return fmt.Errorf("screenshot quality must be between 1 and 99")
	}
	if c.Backend == BackendSelenium {
		if c.DriverPath == "" {
			return fmt.Errorf("chromedriver path cannot be empty")
		}
		if c.DriverBasePort <= 0 || c.DriverPorts <= 0 {
			return fmt.Errorf("selenium port range must be positive")
		}
	}
	if c.MongoURI != "" && c.MongoDatabase == "" {
		return fmt.Errorf("mongo database cannot be empty when MONGO_URI is set")
	}
	if c.AWSBucketName != "" && c.AWSRegion == "" {
		return fmt.Errorf("aws region cannot be empty when AWS_BUCKET_NAME is set")
	}
	if c.MaxConcurrentRuns <= 0 {
		return fmt.Errorf("max concurrent runs must be positive")
	}
	return nil
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, true, nil
}

// EnvBool parses a boolean environment value.
func EnvBool(key string) (bool, bool, error) {
	v, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, true, nil
}
