package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, b, 0o600))
	return p
}

func TestLoadFile_JSON(t *testing.T) {
	p := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc": ":6000",
		"secret_key":         "s3cr3t",
		"retention_interval": "12h",
		"export_url_expiry":  int64(time.Minute),
		"s3_bucket":          "b",
	})

	var c Config
	c.LoadDefaults()
	require.NoError(t, c.LoadFile(p))

	assert.Equal(t, ":6000", c.EndpointAddrGRPC)
	assert.Equal(t, "s3cr3t", c.SecretKey)
	assert.Equal(t, 12*time.Hour, c.RetentionInterval)
	assert.Equal(t, time.Minute, c.ExportURLExpiry)
	assert.Equal(t, "b", c.S3Bucket)
	assert.Equal(t, 366, c.MaxRangeDays, "absent keys keep their value")
}

func TestLoadFile_TOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte("max_range_days = 31\nexport_url_expiry = \"2m\"\ns3_region = \"eu-west-1\"\n"), 0o600))

	var c Config
	c.LoadDefaults()
	require.NoError(t, c.LoadFile(p))

	assert.Equal(t, 31, c.MaxRangeDays)
	assert.Equal(t, 2*time.Minute, c.ExportURLExpiry)
	assert.Equal(t, "eu-west-1", c.S3Region)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	yaml := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yaml, []byte("a: b"), 0o600))

	var c Config
	assert.Error(t, c.LoadFile(filepath.Join(dir, "missing.json")))
	assert.Error(t, c.LoadFile(bad))
	assert.ErrorContains(t, c.LoadFile(yaml), "unsupported config file type")
}
