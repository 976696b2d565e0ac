package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration settings.
type Config struct {
	Host       string // Server host address
	Port       int    // Server port
	DataDir    string // Index data directory
	CorpusPath string // Corpus CSV path

	BarrelTargetSize int    // Barrel rollover threshold in bytes
	BarrelCacheSize  int    // Loaded barrels kept in memory
	Compression      string // Container compression: none, snappy, zstd, gzip

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64

	EnableCORS     bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	EnableLogging bool

	// TLS configuration
	EnableTLS   bool
	TLSCertFile string
	TLSKeyFile  string

	// GraphQL endpoint (opt-in)
	EnableGraphQL bool

	// Auth: when set, POST /documents requires a token from this store
	TokenFile string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            8080,
		DataDir:         "./data",
		CorpusPath:      "./data/corpus.csv",
		BarrelCacheSize: 8,
		Compression:     "snappy",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxRequestSize:  10 * 1024 * 1024, // 10MB
		EnableCORS:      true,
		AllowedOrigins:  []string{"*"},
		AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:  []string{"Content-Type", "Authorization", "X-Request-ID"},
		EnableLogging:   true,
		EnableTLS:       false,
		EnableGraphQL:   false,
	}
}

// fileConfig mirrors Config for YAML decoding. Durations are strings in
// Go duration syntax ("30s", "2m"); pointer fields distinguish unset
// keys from zero values so file settings only overlay what they name.
type fileConfig struct {
	Host       *string `yaml:"host"`
	Port       *int    `yaml:"port"`
	DataDir    *string `yaml:"data_dir"`
	CorpusPath *string `yaml:"corpus_path"`

	BarrelTargetSize *int    `yaml:"barrel_target_size"`
	BarrelCacheSize  *int    `yaml:"barrel_cache_size"`
	Compression      *string `yaml:"compression"`

	ReadTimeout    *string `yaml:"read_timeout"`
	WriteTimeout   *string `yaml:"write_timeout"`
	IdleTimeout    *string `yaml:"idle_timeout"`
	MaxRequestSize *int64  `yaml:"max_request_size"`

	EnableCORS     *bool    `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`

	EnableLogging *bool `yaml:"enable_logging"`

	EnableTLS   *bool   `yaml:"enable_tls"`
	TLSCertFile *string `yaml:"tls_cert_file"`
	TLSKeyFile  *string `yaml:"tls_key_file"`

	EnableGraphQL *bool `yaml:"enable_graphql"`

	TokenFile *string `yaml:"token_file"`
}

// LoadConfigFile overlays YAML settings from path onto cfg.
func LoadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&cfg.Host, fc.Host)
	setInt(&cfg.Port, fc.Port)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.CorpusPath, fc.CorpusPath)
	setInt(&cfg.BarrelTargetSize, fc.BarrelTargetSize)
	setInt(&cfg.BarrelCacheSize, fc.BarrelCacheSize)
	setString(&cfg.Compression, fc.Compression)
	if fc.MaxRequestSize != nil {
		cfg.MaxRequestSize = *fc.MaxRequestSize
	}
	setBool(&cfg.EnableCORS, fc.EnableCORS)
	if fc.AllowedOrigins != nil {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.AllowedMethods != nil {
		cfg.AllowedMethods = fc.AllowedMethods
	}
	if fc.AllowedHeaders != nil {
		cfg.AllowedHeaders = fc.AllowedHeaders
	}
	setBool(&cfg.EnableLogging, fc.EnableLogging)
	setBool(&cfg.EnableTLS, fc.EnableTLS)
	setString(&cfg.TLSCertFile, fc.TLSCertFile)
	setString(&cfg.TLSKeyFile, fc.TLSKeyFile)
	setBool(&cfg.EnableGraphQL, fc.EnableGraphQL)
	setString(&cfg.TokenFile, fc.TokenFile)

	if err := setDuration(&cfg.ReadTimeout, fc.ReadTimeout, "read_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.WriteTimeout, fc.WriteTimeout, "write_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.IdleTimeout, fc.IdleTimeout, "idle_timeout"); err != nil {
		return err
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, name string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}
