package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration values from environment variables. The
// variable names follow the deployment surface of the original system:
//
//	LISTEN_ADDR                       HTTP bind address
//	DATABASE_DSN                      PostgreSQL DSN
//	JWT_SECRET_KEY                    HMAC signing secret
//	JWT_ALGORITHM                     HS256 | HS384 | HS512
//	JWT_ACCESS_TOKEN_EXPIRE_MINUTES   access token lifetime
//	JWT_REFRESH_TOKEN_EXPIRE_DAYS     refresh token lifetime
//	TOKEN_CLEANUP_INTERVAL_MINUTES    expired-token cleanup period
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		config.ListenAddr = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("JWT_ALGORITHM"); ok {
		config.SigningAlgorithm = v
	}
	if v, ok := envInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		config.AccessTokenValidityDuration = time.Duration(v) * time.Minute
	}
	if v, ok := envInt("JWT_REFRESH_TOKEN_EXPIRE_DAYS"); ok {
		config.RefreshTokenValidityDuration = time.Duration(v) * 24 * time.Hour
	}
	if v, ok := envInt("TOKEN_CLEANUP_INTERVAL_MINUTES"); ok {
		config.CleanupInterval = time.Duration(v) * time.Minute
	}
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
