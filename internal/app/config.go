package app

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env       string        `envconfig:"APP_ENV" default:"dev"`
	Port      string        `envconfig:"APP_PORT" default:"8080"`
	DSN       string        `envconfig:"DB_DSN" required:"true"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`
	SMTPHost  string        `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort  string        `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom  string        `envconfig:"SMTP_FROM" default:"no-reply@storefront.local"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
