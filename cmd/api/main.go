package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"example.com/storefront/internal/app"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using system environment variables")
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	srv, cleanup, err := app.NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init server")
	}
	defer cleanup()

	log.WithField("port", cfg.Port).Info("listening")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
