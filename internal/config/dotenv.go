package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv loads environment variables from the given .env files when
// present. Existing process environment variables are not overridden.
func loadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}
