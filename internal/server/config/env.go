package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
	"github.com/dmitrijs2005/gophaccounts/internal/timex"
	"github.com/joho/godotenv"
)

// defaultEnvFile is loaded when present and no -e/-env flag names another file.
const defaultEnvFile = ".env"

// parseEnv overlays values from environment variables. A dotenv file is read
// first; variables already set in the process environment win over it.
//
// Lifetimes (ACCESS_TOKEN_LIFETIME, REFRESH_TOKEN_LIFETIME, ...) accept either
// integer seconds or Go durations such as "15m". Malformed values panic.
func parseEnv(config *Config, args []string) {
	loadDotenv(flagx.EnvFile(args))

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_URL", &config.DatabaseDSN)
	envString("JWT_SIGNING_KEY", &config.SecretKey)
	envString("JWT_ALGORITHM", &config.SigningAlgorithm)
	envString("JWT_ISSUER", &config.TokenIssuer)
	envString("ACCESS_TOKEN_NAME", &config.AccessTokenName)
	envDuration("ACCESS_TOKEN_LIFETIME", &config.AccessTokenLifetime)
	envString("REFRESH_TOKEN_NAME", &config.RefreshTokenName)
	envDuration("REFRESH_TOKEN_LIFETIME", &config.RefreshTokenLifetime)
	envString("EMAIL_CLAIM", &config.EmailClaim)
	envString("TOKEN_TYPE_CLAIM", &config.TokenTypeClaim)
	envInt("PASSWORD_MIN_LENGTH", &config.PasswordMinLength)
	envInt("BCRYPT_COST", &config.BcryptCost)
	envString("MEDIA_ROOT", &config.MediaRoot)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("AVATAR_URL_EXPIRY", &config.AvatarURLExpiry)
	envString("REDIS_URL", &config.RedisURL)
	envInt("RATE_LIMIT_REQUESTS", &config.RateLimitRequests)
	envDuration("RATE_LIMIT_WINDOW", &config.RateLimitWindow)
	envString("NATS_URL", &config.NATSURL)
	envString("EVENTS_SUBJECT_PREFIX", &config.EventsSubjectPrefix)
	envString("PHONE_DEFAULT_REGION", &config.PhoneDefaultRegion)
	envDuration("REQUEST_TIMEOUT", &config.RequestTimeout)
	envBool("DEBUG", &config.Debug)
}

func loadDotenv(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	*dst = n
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	d, err := timex.ParseSecondsOrDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	*dst = d
}

func envBool(name string, dst *bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	*dst = b
}
