package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
	"github.com/dmitrijs2005/gophaccounts/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "5m" and integer nanoseconds are accepted.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr             *string         `json:"http_addr"`
	GRPCAddr             *string         `json:"grpc_addr"`
	DatabaseDSN          *string         `json:"database_dsn"`
	SecretKey            *string         `json:"secret_key"`
	SigningAlgorithm     *string         `json:"signing_algorithm"`
	TokenIssuer          *string         `json:"token_issuer"`
	AccessTokenName      *string         `json:"access_token_name"`
	AccessTokenLifetime  *timex.Duration `json:"access_token_lifetime"`
	RefreshTokenName     *string         `json:"refresh_token_name"`
	RefreshTokenLifetime *timex.Duration `json:"refresh_token_lifetime"`
	EmailClaim           *string         `json:"email_claim"`
	TokenTypeClaim       *string         `json:"token_type_claim"`
	PasswordMinLength    *int            `json:"password_min_length"`
	BcryptCost           *int            `json:"bcrypt_cost"`
	MediaRoot            *string         `json:"media_root"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Bucket             *string         `json:"s3_bucket"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	AvatarURLExpiry      *timex.Duration `json:"avatar_url_expiry"`
	RedisURL             *string         `json:"redis_url"`
	RateLimitRequests    *int            `json:"rate_limit_requests"`
	RateLimitWindow      *timex.Duration `json:"rate_limit_window"`
	NATSURL              *string         `json:"nats_url"`
	EventsSubjectPrefix  *string         `json:"events_subject_prefix"`
	PhoneDefaultRegion   *string         `json:"phone_default_region"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	Debug                *bool           `json:"debug"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens. An unreadable file or invalid JSON panics: the server
// must not start on a half-read configuration.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFile(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningAlgorithm, c.SigningAlgorithm)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.AccessTokenName, c.AccessTokenName)
	setString(&config.RefreshTokenName, c.RefreshTokenName)
	setString(&config.EmailClaim, c.EmailClaim)
	setString(&config.TokenTypeClaim, c.TokenTypeClaim)
	setString(&config.MediaRoot, c.MediaRoot)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.EventsSubjectPrefix, c.EventsSubjectPrefix)
	setString(&config.PhoneDefaultRegion, c.PhoneDefaultRegion)

	if c.AccessTokenLifetime != nil {
		config.AccessTokenLifetime = c.AccessTokenLifetime.Duration
	}
	if c.RefreshTokenLifetime != nil {
		config.RefreshTokenLifetime = c.RefreshTokenLifetime.Duration
	}
	if c.AvatarURLExpiry != nil {
		config.AvatarURLExpiry = c.AvatarURLExpiry.Duration
	}
	if c.RateLimitWindow != nil {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.PasswordMinLength != nil {
		config.PasswordMinLength = *c.PasswordMinLength
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.RateLimitRequests != nil {
		config.RateLimitRequests = *c.RateLimitRequests
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
