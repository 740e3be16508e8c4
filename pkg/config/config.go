package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigFile = "./config.yaml"

type Config struct {
	DatabaseConnectRetryCount int    `koanf:"database_connect_retry_count"`
	DatabaseDebug             bool   `koanf:"database_debug"`
	DatabaseFilePath          string `koanf:"database_file_path"`
	DatabaseMaxRetries        int    `koanf:"database_max_retries"`
	Environment               string `koanf:"environment"`
	FrontendURL               string `koanf:"frontend_url"`
	JWTSecret                 string `koanf:"jwt_secret"`
	OTPTTLMinutes             int    `koanf:"otp_ttl_minutes"`
	PaymentGatewaySecret      string `koanf:"payment_gateway_secret"`
	ServerHost                string `koanf:"server_host"`
	ServerPort                int    `koanf:"server_port"`
	StorageAccessKey          string `koanf:"storage_access_key"`
	StorageBucket             string `koanf:"storage_bucket"`
	StorageEndpoint           string `koanf:"storage_endpoint"`
	StorageSecretKey          string `koanf:"storage_secret_key"`
	StorageUseSSL             bool   `koanf:"storage_use_ssl"`
	UploadSessionTTLHours     int    `koanf:"upload_session_ttl_hours"`
	WorkerProcesses           int    `koanf:"worker_processes"`

	// Not configurable; tuned constants for the SQLite driver.
	DatabaseBusyTimeout       time.Duration `koanf:"-"`
	DatabaseConnectRetryDelay time.Duration `koanf:"-"`

	Hostname string `koanf:"-"`
}

// required maps env var names to config file keys for fields that have no
// usable default.
var required = map[string]string{
	"DATABASE_FILE_PATH": "database_file_path",
	"JWT_SECRET":         "jwt_secret",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database_connect_retry_count": 5,
		"database_max_retries":         3,
		"environment":                  "development",
		"otp_ttl_minutes":              10,
		"server_host":                  "0.0.0.0",
		"server_port":                  4800,
		"storage_bucket":               "mindnest-media",
		"upload_session_ttl_hours":     24,
		"worker_processes":             2,
	}
}

// New loads config from the defaults, then the yaml file pointed to by
// CONFIG_FILE (if it exists), then environment variables. Later sources win.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "config file error")
		}
	}

	err = k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	missing := []string{}
	for envName, key := range required {
		if k.String(key) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", envName, key))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	cfg.DatabaseBusyTimeout = 5 * time.Second
	cfg.DatabaseConnectRetryDelay = 2 * time.Second
	cfg.Hostname = hostname

	return cfg, nil
}

// OTPTTL is how long a requested OTP code stays valid.
func (cfg *Config) OTPTTL() time.Duration {
	return time.Duration(cfg.OTPTTLMinutes) * time.Minute
}

// UploadSessionTTL is how long an incomplete chunked upload session may sit
// idle before the cleanup worker discards it.
func (cfg *Config) UploadSessionTTL() time.Duration {
	return time.Duration(cfg.UploadSessionTTLHours) * time.Hour
}

// IsProduction reports whether the server is running in production mode.
func (cfg *Config) IsProduction() bool {
	return cfg.Environment == "production"
}
