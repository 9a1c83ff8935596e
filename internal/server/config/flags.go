package config

import (
	"flag"
	"os"
	"time"

	"github.com/studyvault/noteaccess/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-w string   watermark/content signing secret
//	-k string   admin bearer token
//	-t int      view-session TTL, minutes
//	-n int      per-(note,user) concurrent session cap
//	-l int      rate-limit request count
//	-i int      rate-limit window, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Arguments are first filtered with flagx.FilterArgs so this component never
// collides with flags owned by others.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-w", "-k", "-t", "-n", "-l", "-i", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.WatermarkSecret, "w", config.WatermarkSecret, "watermark signing secret")
	fs.StringVar(&config.AdminToken, "k", config.AdminToken, "admin bearer token")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "view session TTL (in minutes)")
	fs.IntVar(&config.SessionCap, "n", config.SessionCap, "concurrent session cap per note and user")
	fs.IntVar(&config.RateLimitCount, "l", config.RateLimitCount, "rate limit request count")
	rateWindow := fs.Int("i", int(config.RateLimitWindow.Seconds()), "rate limit window (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.RateLimitWindow = time.Duration(*rateWindow) * time.Second
}
