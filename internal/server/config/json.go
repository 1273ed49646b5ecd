package config

import (
	"encoding/json"
	"os"
	"time"

	"fileshare/internal/flagx"
	"fileshare/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr                      string         `json:"endpoint_addr"`
	DatabaseDSN                       string         `json:"database_dsn"`
	SecretKey                         string         `json:"secret_key"`
	DownloadTokenSecret               string         `json:"download_token_secret"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	DownloadTokenValidityDuration     timex.Duration `json:"download_token_validity_duration"`
	PresignedURLValidityDuration      timex.Duration `json:"presigned_url_validity_duration"`
	MaxUploadSize                     int64          `json:"max_upload_size"`
	AllowedFileExtensions             []string       `json:"allowed_file_extensions"`
	S3RootUser                        string         `json:"s3_root_user"`
	S3RootPassword                    string         `json:"s3_root_password"`
	S3Bucket                          string         `json:"s3_bucket"`
	S3Region                          string         `json:"s3_region"`
	S3BaseEndpoint                    string         `json:"s3_base_endpoint"`
	SMTPHost                          string         `json:"smtp_host"`
	SMTPPort                          int            `json:"smtp_port"`
	SMTPUser                          string         `json:"smtp_user"`
	SMTPPassword                      string         `json:"smtp_password"`
	BaseURL                           string         `json:"base_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics. Zero-valued fields in the file are not
// applied, so the JSON overlay only overrides what it mentions.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	applyDuration := func(dst *time.Duration, v timex.Duration) {
		if v.Duration != 0 {
			*dst = v.Duration
		}
	}

	applyString(&config.EndpointAddr, c.EndpointAddr)
	applyString(&config.DatabaseDSN, c.DatabaseDSN)
	applyString(&config.SecretKey, c.SecretKey)
	applyString(&config.DownloadTokenSecret, c.DownloadTokenSecret)
	applyDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	applyDuration(&config.VerificationTokenValidityDuration, c.VerificationTokenValidityDuration)
	applyDuration(&config.DownloadTokenValidityDuration, c.DownloadTokenValidityDuration)
	applyDuration(&config.PresignedURLValidityDuration, c.PresignedURLValidityDuration)
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if len(c.AllowedFileExtensions) > 0 {
		config.AllowedFileExtensions = c.AllowedFileExtensions
	}
	applyString(&config.S3RootUser, c.S3RootUser)
	applyString(&config.S3RootPassword, c.S3RootPassword)
	applyString(&config.S3Bucket, c.S3Bucket)
	applyString(&config.S3Region, c.S3Region)
	applyString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	applyString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	applyString(&config.SMTPUser, c.SMTPUser)
	applyString(&config.SMTPPassword, c.SMTPPassword)
	applyString(&config.BaseURL, c.BaseURL)
}
