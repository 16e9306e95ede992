package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address, empty disables it
//	-d string   PostgreSQL DSN
//	-s string   JWT signing key
//	-t int      access token lifetime, minutes
//	-r int      refresh token lifetime, minutes
//	-b string   S3 bucket for avatars
//	-debug      enable debug logging and the profiler
//
// Only these flags are read; -c/-config and -e/-env are handled by the
// JSON and environment layers.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-b", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP on")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT signing key")

	accessTokenLifetime := fs.Int("t", int(config.AccessTokenLifetime.Minutes()), "access token lifetime (in minutes)")
	refreshTokenLifetime := fs.Int("r", int(config.RefreshTokenLifetime.Minutes()), "refresh token lifetime (in minutes)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for avatars")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only override lifetimes that were given, so sub-minute values from
	// the environment survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenLifetime = time.Duration(*accessTokenLifetime) * time.Minute
		case "r":
			config.RefreshTokenLifetime = time.Duration(*refreshTokenLifetime) * time.Minute
		}
	})
}
