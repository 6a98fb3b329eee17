package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	if header := os.Getenv("AUTH_USER_HEADER"); header != "" {
		cfg.AuthUserHeader = header
	}

	dataDir := os.Getenv("DATA_DIRECTORY")
	if dataDir == "" {
		dataDir = "/data"
	}
	cfg.DatabaseFilePath = dataDir + "/circulate.sqlite"
}
