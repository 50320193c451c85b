package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/dailyagg/internal/timex"
)

// fileConfig is the on-disk shape of the configuration. Duration fields use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type fileConfig struct {
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	DatabaseDSN       string         `json:"database_dsn" toml:"database_dsn"`
	SecretKey         string         `json:"secret_key" toml:"secret_key"`
	LogLevel          string         `json:"log_level" toml:"log_level"`
	MaxRangeDays      int            `json:"max_range_days" toml:"max_range_days"`
	RetentionDays     int            `json:"retention_days" toml:"retention_days"`
	RetentionInterval timex.Duration `json:"retention_interval" toml:"retention_interval"`
	ExportURLExpiry   timex.Duration `json:"export_url_expiry" toml:"export_url_expiry"`
	S3RootUser        string         `json:"s3_root_user" toml:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password" toml:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket" toml:"s3_bucket"`
	S3Region          string         `json:"s3_region" toml:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint" toml:"s3_base_endpoint"`
}

func fileConfigFrom(c *Config) *fileConfig {
	return &fileConfig{
		EndpointAddrGRPC:  c.EndpointAddrGRPC,
		DatabaseDSN:       c.DatabaseDSN,
		SecretKey:         c.SecretKey,
		LogLevel:          c.LogLevel,
		MaxRangeDays:      c.MaxRangeDays,
		RetentionDays:     c.RetentionDays,
		RetentionInterval: timex.Duration{Duration: c.RetentionInterval},
		ExportURLExpiry:   timex.Duration{Duration: c.ExportURLExpiry},
		S3RootUser:        c.S3RootUser,
		S3RootPassword:    c.S3RootPassword,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
	}
}

func (f *fileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.DatabaseDSN = f.DatabaseDSN
	c.SecretKey = f.SecretKey
	c.LogLevel = f.LogLevel
	c.MaxRangeDays = f.MaxRangeDays
	c.RetentionDays = f.RetentionDays
	c.RetentionInterval = f.RetentionInterval.Duration
	c.ExportURLExpiry = f.ExportURLExpiry.Duration
	c.S3RootUser = f.S3RootUser
	c.S3RootPassword = f.S3RootPassword
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
}

// LoadFile overlays settings from a .json or .toml file. Keys missing from
// the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfigFrom(c)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), fc); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, fc); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}

	fc.apply(c)
	return nil
}
