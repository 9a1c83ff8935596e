package config

import (
	"encoding/json"
	"os"

	"github.com/studyvault/noteaccess/internal/flagx"
	"github.com/studyvault/noteaccess/internal/timex"
)

// JsonConfig is the intermediate DTO for the optional JSON config file.
// Duration fields use timex.Duration so both "30m" strings and integer
// nanoseconds parse. After unmarshalling, values are copied into Config.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	WatermarkSecret string         `json:"watermark_secret"`
	AdminToken      string         `json:"admin_token"`
	SessionTTL      timex.Duration `json:"session_ttl"`
	SessionCap      int            `json:"session_cap"`
	RateLimitCount  int            `json:"rate_limit_count"`
	RateLimitWindow timex.Duration `json:"rate_limit_window"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration from the JSON file named by the -c/-config
// flags, when present. The DTO is seeded from the current config before
// unmarshalling, so fields absent from the file keep their values. An
// unreadable or invalid file panics: a half-applied config is worse than no
// server.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddr:    config.EndpointAddr,
		DatabaseDSN:     config.DatabaseDSN,
		SecretKey:       config.SecretKey,
		WatermarkSecret: config.WatermarkSecret,
		AdminToken:      config.AdminToken,
		SessionTTL:      timex.Duration{Duration: config.SessionTTL},
		SessionCap:      config.SessionCap,
		RateLimitCount:  config.RateLimitCount,
		RateLimitWindow: timex.Duration{Duration: config.RateLimitWindow},
		S3RootUser:      config.S3RootUser,
		S3RootPassword:  config.S3RootPassword,
		S3Bucket:        config.S3Bucket,
		S3Region:        config.S3Region,
		S3BaseEndpoint:  config.S3BaseEndpoint,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.WatermarkSecret = c.WatermarkSecret
	config.AdminToken = c.AdminToken
	config.SessionTTL = c.SessionTTL.Duration
	config.SessionCap = c.SessionCap
	config.RateLimitCount = c.RateLimitCount
	config.RateLimitWindow = c.RateLimitWindow.Duration
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
