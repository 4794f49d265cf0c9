package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nycexplorer/internal/config"
	"nycexplorer/internal/logging"
	"nycexplorer/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer logger.Sync()

	if err := server.Run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
