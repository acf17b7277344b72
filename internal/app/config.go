package app

import (
	"time"

	"github.com/statlab/statlab-backend/internal/platform/envutil"
)

type Config struct {
	ServiceName    string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		ServiceName:    envutil.String("SERVICE_NAME", "statlab"),
		Environment:    envutil.String("APP_ENV", "development"),
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
	}
}
