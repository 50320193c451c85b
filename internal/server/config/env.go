package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "DAILYAGG_"

// dotEnvFile is read, when present, before the environment is consulted.
// Variables already set in the process environment win.
var dotEnvFile = ".env"

func loadDotEnv() error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	return nil
}

// applyEnv overlays DAILYAGG_* variables found through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("GRPC_ADDR", &c.EndpointAddrGRPC)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("SECRET_KEY", &c.SecretKey)
	str("LOG_LEVEL", &c.LogLevel)
	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)

	return errors.Join(
		num("MAX_RANGE_DAYS", &c.MaxRangeDays),
		num("RETENTION_DAYS", &c.RetentionDays),
		dur("RETENTION_INTERVAL", &c.RetentionInterval),
		dur("EXPORT_URL_EXPIRY", &c.ExportURLExpiry),
	)
}
