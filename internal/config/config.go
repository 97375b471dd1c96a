package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/michaelberinski/genologics/internal/log"
)

// Config carries the LIMS connection settings shared by EPP scripts.
// Username and password are opaque here; whatever client implementation
// the deployment wires in consumes them.
type Config struct {
	BaseURI  string
	Username string
	Password string
}

// Load reads a .env file when present, then the environment. BASEURI is
// required since every remote-path translation depends on it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.GetLogger().Debugf("No .env file found or failed to load: %v. Using environment variables.", err)
	}
	cfg := Config{
		BaseURI:  os.Getenv("BASEURI"),
		Username: os.Getenv("USERNAME"),
		Password: os.Getenv("PASSWORD"),
	}
	if cfg.BaseURI == "" {
		return Config{}, errors.New("BASEURI is required")
	}
	return cfg, nil
}
