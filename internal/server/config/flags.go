package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dailyagg/internal/flagx"
)

// serverFlags lists the flags parseFlags owns; anything else on the command
// line belongs to another component.
var serverFlags = []string{"-a", "-d", "-s", "-l", "-m", "-k", "-i", "-x", "-u", "-p", "-b", "-g", "-e"}

// parseFlags overlays command-line flags.
//
// Supported flags (short forms):
//
//	-a string    gRPC bind address (e.g., ":50051")
//	-d string    PostgreSQL DSN, or "memory"
//	-s string    JWT HMAC secret key
//	-l string    log level
//	-m int       max range length, days
//	-k int       retention, days (0 disables cleanup)
//	-i duration  retention cleanup interval (e.g., "6h")
//	-x duration  export link expiry (e.g., "15m")
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint (e.g., "http://127.0.0.1:9000/")
func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.EndpointAddrGRPC, "a", c.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.IntVar(&c.MaxRangeDays, "m", c.MaxRangeDays, "max range length in days")
	fs.IntVar(&c.RetentionDays, "k", c.RetentionDays, "retention in days")
	fs.DurationVar(&c.RetentionInterval, "i", c.RetentionInterval, "retention cleanup interval")
	fs.DurationVar(&c.ExportURLExpiry, "x", c.ExportURLExpiry, "export link expiry")
	fs.StringVar(&c.S3RootUser, "u", c.S3RootUser, "S3 root user")
	fs.StringVar(&c.S3RootPassword, "p", c.S3RootPassword, "S3 root password")
	fs.StringVar(&c.S3Bucket, "b", c.S3Bucket, "S3 bucket")
	fs.StringVar(&c.S3Region, "g", c.S3Region, "S3 region")
	fs.StringVar(&c.S3BaseEndpoint, "e", c.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
