// Package config loads piiguard settings from environment variables and
// assembles a ready-to-use Protector. Any configuration error is fatal: the
// host process should refuse to start instead of degrading to plaintext.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ai8future/piiguard"
)

// Config holds every piiguard setting.
type Config struct {
	// FieldEncryptionEnabled turns on encryption of protected entity fields.
	FieldEncryptionEnabled bool
	// FieldEncryptionKeys is a JSON object mapping version labels to base64 keys.
	FieldEncryptionKeys string
	// FieldEncryptionActiveKeyVersion is the label used for new field encryptions.
	FieldEncryptionActiveKeyVersion string
	// BlindIndexPepper is the HMAC secret for searchable fields.
	BlindIndexPepper string

	// FileEncryptionEnabled turns on encryption of sensitive document uploads.
	FileEncryptionEnabled bool
	// FileEncryptionKeys falls back to FieldEncryptionKeys when unset.
	FileEncryptionKeys string
	// FileEncryptionActiveKeyVersion falls back to FieldEncryptionActiveKeyVersion when unset.
	FileEncryptionActiveKeyVersion string
	// FileEncryptionAlgorithm is the AEAD for new document encryptions.
	FileEncryptionAlgorithm string
	// SensitiveDocumentTypes overrides the built-in list when non-empty.
	SensitiveDocumentTypes []string

	// LegacyPlaintextRetain is the initial state of the legacy plaintext switch.
	LegacyPlaintextRetain bool

	// LogLevel is a logrus level name.
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string

	// MetricsEnabled turns on OpenTelemetry business metrics.
	MetricsEnabled bool
	// MetricsNamespace prefixes metric names.
	MetricsNamespace string
}

// Load reads configuration from the environment, after loading the nearest
// .env file if there is one.
func Load() *Config {
	loadDotEnv()

	fieldKeys := env.GetString("FIELD_ENCRYPTION_KEYS", "")
	fieldActive := env.GetString("FIELD_ENCRYPTION_ACTIVE_KEY_VERSION", "")

	return &Config{
		// Field encryption
		FieldEncryptionEnabled:          env.GetBool("FIELD_ENCRYPTION_ENABLED", false),
		FieldEncryptionKeys:             fieldKeys,
		FieldEncryptionActiveKeyVersion: fieldActive,
		BlindIndexPepper:                env.GetString("BLIND_INDEX_PEPPER", ""),

		// File encryption
		FileEncryptionEnabled:          env.GetBool("FILE_ENCRYPTION_ENABLED", false),
		FileEncryptionKeys:             env.GetString("FILE_ENCRYPTION_KEYS", fieldKeys),
		FileEncryptionActiveKeyVersion: env.GetString("FILE_ENCRYPTION_ACTIVE_KEY_VERSION", fieldActive),
		FileEncryptionAlgorithm:        env.GetString("FILE_ENCRYPTION_ALGORITHM", string(piiguard.AlgorithmAESGCM)),
		SensitiveDocumentTypes:         piiguard.ParseDocumentTypes(env.GetString("SENSITIVE_DOCUMENT_TYPES", "")),

		// Migration
		LegacyPlaintextRetain: env.GetBool("LEGACY_PLAINTEXT_RETAIN", true),

		// Logging
		LogLevel:  env.GetString("LOG_LEVEL", "info"),
		LogFormat: env.GetString("LOG_FORMAT", "text"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "piiguard"),
	}
}

// Validate checks that every enabled feature has its secrets, that configured
// key maps name an active version, and that enum settings hold known values. The returned error wraps piiguard.ErrConfiguration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.FieldEncryptionKeys,
			validation.When(c.FieldEncryptionEnabled, validation.Required),
		),
		validation.Field(&c.FieldEncryptionActiveKeyVersion,
			validation.When(c.FieldEncryptionEnabled || c.FieldEncryptionKeys != "", validation.Required),
		),
		validation.Field(&c.BlindIndexPepper,
			validation.When(c.FieldEncryptionEnabled, validation.Required),
		),
		validation.Field(&c.FileEncryptionKeys,
			validation.When(c.FileEncryptionEnabled, validation.Required),
		),
		validation.Field(&c.FileEncryptionActiveKeyVersion,
			validation.When(c.FileEncryptionEnabled || c.FileEncryptionKeys != "", validation.Required),
		),
		validation.Field(&c.FileEncryptionAlgorithm,
			validation.Required,
			validation.By(validAlgorithm),
		),
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.By(validLogLevel),
		),
		validation.Field(&c.LogFormat,
			validation.In("text", "json"),
		),
		validation.Field(&c.MetricsNamespace,
			validation.When(c.MetricsEnabled, validation.Required),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", piiguard.ErrConfiguration, err.Error())
	}
	return nil
}

func validAlgorithm(value interface{}) error {
	s, _ := value.(string)
	if _, err := piiguard.ParseAlgorithm(s); err != nil {
		return validation.NewError("validation_algorithm", "must be aes-256-gcm or chacha20-poly1305")
	}
	return nil
}

func validLogLevel(value interface{}) error {
	s, _ := value.(string)
	if _, err := logrus.ParseLevel(s); err != nil {
		return validation.NewError("validation_log_level", "must be a valid log level")
	}
	return nil
}

// NewLogger builds the logger described by c.
func NewLogger(c *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Build validates c and assembles a Protector. A nil logger means
// NewLogger(c).
//
// The enable flags gate writes only. Whenever a key map is configured its
// ring is parsed and the codec attached, so rows sealed before a feature was
// switched off stay readable. Likewise the hasher is attached whenever a
// pepper is set.
func Build(c *Config, logger logrus.FieldLogger) (*piiguard.Protector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger(c)
	}

	opts := []piiguard.ProtectorOption{
		piiguard.WithFieldEncryption(c.FieldEncryptionEnabled),
		piiguard.WithPlaintextSwitch(piiguard.NewPlaintextSwitch(
			piiguard.LegacyPolicyFromBool(c.LegacyPlaintextRetain),
		)),
		piiguard.WithRegistry(piiguard.NewRegistry(
			piiguard.WithFileEncryption(c.FileEncryptionEnabled),
			piiguard.WithSensitiveTypes(c.SensitiveDocumentTypes...),
		)),
		piiguard.WithLogger(logger),
	}

	summary := logrus.Fields{
		"field_encryption":        c.FieldEncryptionEnabled,
		"file_encryption":         c.FileEncryptionEnabled,
		"legacy_plaintext_retain": c.LegacyPlaintextRetain,
	}

	if c.FieldEncryptionEnabled || c.FieldEncryptionKeys != "" {
		ring, err := piiguard.ParseKeyRing(c.FieldEncryptionKeys, c.FieldEncryptionActiveKeyVersion)
		if err != nil {
			return nil, fmt.Errorf("field encryption keys: %w", err)
		}
		opts = append(opts, piiguard.WithFieldCodec(piiguard.NewFieldCodec(ring)))
		summary["field_key_versions"] = ring.Versions()
		summary["field_active_version"] = ring.Active()
	}

	if c.BlindIndexPepper != "" {
		hasher, err := piiguard.NewHasher(c.BlindIndexPepper)
		if err != nil {
			return nil, err
		}
		opts = append(opts, piiguard.WithHasher(hasher))
	}

	if c.FileEncryptionEnabled || c.FileEncryptionKeys != "" {
		ring, err := piiguard.ParseKeyRing(c.FileEncryptionKeys, c.FileEncryptionActiveKeyVersion)
		if err != nil {
			return nil, fmt.Errorf("file encryption keys: %w", err)
		}
		alg, err := piiguard.ParseAlgorithm(c.FileEncryptionAlgorithm)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", piiguard.ErrConfiguration, err.Error())
		}
		files, err := piiguard.NewFileCodec(ring, piiguard.WithAlgorithm(alg))
		if err != nil {
			return nil, err
		}
		opts = append(opts, piiguard.WithFileCodec(files))
		summary["file_key_versions"] = ring.Versions()
		summary["file_active_version"] = ring.Active()
		summary["file_algorithm"] = string(alg)
	}

	p, err := piiguard.NewProtector(opts...)
	if err != nil {
		return nil, err
	}

	logger.WithFields(summary).Info("piiguard configured")
	return p, nil
}

// Loader builds the Protector once and hands the same result, or the same
// error, to every caller.
type Loader struct {
	load   func() *Config
	logger logrus.FieldLogger

	once      sync.Once
	cfg       *Config
	protector *piiguard.Protector
	err       error
}

// NewLoader creates a Loader that reads the environment with Load.
func NewLoader(logger logrus.FieldLogger) *Loader {
	return &Loader{load: Load, logger: logger}
}

// Protector returns the process-wide Protector, building it on first use.
func (l *Loader) Protector() (*piiguard.Protector, error) {
	l.once.Do(func() {
		l.cfg = l.load()
		l.protector, l.err = Build(l.cfg, l.logger)
	})
	return l.protector, l.err
}

// Config returns the loaded configuration, loading it if needed, along with
// the error Build reported for it. The configuration is returned even when
// the build failed so callers can report what was read.
func (l *Loader) Config() (*Config, error) {
	_, err := l.Protector()
	return l.cfg, err
}

// loadDotEnv searches for a .env file from the current directory up to the
// root and loads the first one found. Existing variables are not overridden.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
