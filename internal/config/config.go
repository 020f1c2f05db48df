package config

import (
	"path/filepath"
	"sync"

	"fjacquet/stmt-import/internal/fileutils"
	"fjacquet/stmt-import/internal/logging"

	"github.com/joho/godotenv"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, once per process. Variables already set win.
func LoadEnv() {
	once.Do(func() {
		loadEnvFile(".env", filepath.Join("..", ".env"))
	})
}

func loadEnvFile(candidates ...string) string {
	logger := logging.GetLogger()
	for _, envFile := range candidates {
		if !fileutils.FileExists(envFile) {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.Field{Key: logging.FieldFile, Value: envFile})
			return ""
		}
		logger.Debug("Loaded environment variables", logging.Field{Key: logging.FieldFile, Value: envFile})
		return envFile
	}
	logger.Debug("No .env file found, using environment variables")
	return ""
}
