package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"smartcopy/pkg/coreerrors"
	"smartcopy/pkg/helper/errors"
)

// LoadFromFile loads configuration from a file, then applies
// environment variable overrides, then validates.
func LoadFromFile(configPath string) (*Config, error) {
	config := NewDefaultConfig()

	if configPath != "" {
		expandedPath := ExpandHomeDir(configPath)

		if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
			return nil, errors.NotFoundf("configuration file not found: %s", expandedPath)
		}

		data, err := os.ReadFile(expandedPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read configuration file")
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "failed to parse configuration file")
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadFromEnv applies SMARTCOPY_* environment variable overrides.
func loadFromEnv(config *Config) error {
	strVars := map[string]*string{
		"SMARTCOPY_LOG_LEVEL":      &config.LogLevel,
		"SMARTCOPY_MANIFEST_PATH":   &config.Manifest.Path,
		"SMARTCOPY_MANIFEST_FORMAT": &config.Manifest.Format,
		"SMARTCOPY_CHECKPOINT_DIR":  &config.Checkpoint.Directory,
		"SMARTCOPY_METRICS_NAMESPACE": &config.Metrics.Namespace,
	}
	for env, field := range strVars {
		if value, exists := os.LookupEnv(env); exists && value != "" {
			*field = value
		}
	}

	if value, exists := os.LookupEnv("SMARTCOPY_CHUNK_SIZE_BYTES"); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			config.Sync.ChunkSizeBytes = n
		}
	}
	if value, exists := os.LookupEnv("SMARTCOPY_COPY_WORKERS"); exists {
		if n, err := strconv.Atoi(value); err == nil {
			config.Sync.CopyWorkers = n
		}
	}
	if value, exists := os.LookupEnv("SMARTCOPY_SIGNATURE_WORKERS"); exists {
		if n, err := strconv.Atoi(value); err == nil {
			config.Sync.SignatureWorkers = n
		}
	}
	if value, exists := os.LookupEnv("SMARTCOPY_VERIFY_HASHES"); exists {
		config.Sync.VerifyHashes = strings.ToLower(value) == "true" || value == "1"
	}
	if value, exists := os.LookupEnv("SMARTCOPY_METRICS_ENABLED"); exists {
		config.Metrics.Enabled = strings.ToLower(value) == "true" || value == "1"
	}
	if value, exists := os.LookupEnv("SMARTCOPY_CHECKPOINT_INTERVAL_BYTES"); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			config.Checkpoint.IntervalBytes = n
		}
	}
	if value, exists := os.LookupEnv("SMARTCOPY_CHECKPOINT_GC_MAX_AGE_DAYS"); exists {
		if n, err := strconv.Atoi(value); err == nil {
			config.Checkpoint.GCMaxAgeDays = n
		}
	}
	if value, exists := os.LookupEnv("SMARTCOPY_SERVER_PORT"); exists {
		if n, err := strconv.Atoi(value); err == nil {
			config.Server.Port = n
		}
	}

	return nil
}

// SaveToFile saves the configuration to a file as YAML.
func (c *Config) SaveToFile(filePath string) error {
	expandedPath := ExpandHomeDir(filePath)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	file, err := os.Create(expandedPath)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}

	return nil
}

// Validate checks the configuration for the invariants the core engine
// assumes: positive chunk size and checkpoint interval, a non-empty
// checkpoint directory (whether it exists is not checked here), and
// known log level and manifest format.
func (c *Config) Validate() error {
	logLevel := strings.ToLower(c.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" && logLevel != "fatal" {
		return coreerrors.ConfigInvalid("invalid log level: " + c.LogLevel + " (must be one of: debug, info, warn, error, fatal)")
	}

	if c.Sync.ChunkSizeBytes <= 0 {
		return coreerrors.ConfigInvalid("chunk size must be positive")
	}
	if c.Sync.CopyWorkers < 0 {
		return coreerrors.ConfigInvalid("copy workers must be non-negative")
	}
	if c.Sync.SignatureWorkers < 0 {
		return coreerrors.ConfigInvalid("signature workers must be non-negative")
	}

	switch c.Manifest.Format {
	case "text", "binary", "columnar":
	default:
		return coreerrors.ConfigInvalid("invalid manifest format: " + c.Manifest.Format + " (must be one of: text, binary, columnar)")
	}
	if c.Manifest.Path == "" {
		return coreerrors.ConfigInvalid("manifest path must not be empty")
	}

	if c.Checkpoint.Directory == "" {
		return coreerrors.ConfigInvalid("checkpoint directory must not be empty")
	}
	if c.Checkpoint.IntervalBytes <= 0 {
		return coreerrors.ConfigInvalid("checkpoint interval must be positive")
	}
	if c.Checkpoint.GCMaxAgeDays <= 0 {
		return coreerrors.ConfigInvalid("checkpoint GC max age days must be positive")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return coreerrors.ConfigInvalid("server port must be between 0 and 65535")
	}

	return nil
}
