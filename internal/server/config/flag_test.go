package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-l", "debug",
				"-m", "90", "-k", "30", "-i", "6h", "-x", "5m",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddrGRPC:  "127.0.0.1:9090",
				DatabaseDSN:       "db",
				SecretKey:         "secret",
				LogLevel:          "debug",
				MaxRangeDays:      90,
				RetentionDays:     30,
				RetentionInterval: 6 * time.Hour,
				ExportURLExpiry:   5 * time.Minute,
				S3RootUser:        "user",
				S3RootPassword:    "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.toml", "--verbose", "-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1"},
		},
		{
			name:    "bad duration",
			args:    []string{"-i", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := config.parseFlags(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
