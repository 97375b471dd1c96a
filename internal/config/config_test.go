package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michaelberinski/genologics/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("FromEnvironment", func(t *testing.T) {
		t.Setenv("BASEURI", "https://lims.example.com")
		t.Setenv("USERNAME", "apiuser")
		t.Setenv("PASSWORD", "apipass")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.Equal(t, "https://lims.example.com", cfg.BaseURI)
		assert.Equal(t, "apiuser", cfg.Username)
		assert.Equal(t, "apipass", cfg.Password)
	})

	t.Run("MissingBaseURI", func(t *testing.T) {
		t.Setenv("BASEURI", "")

		_, err := config.Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "BASEURI")
	})
}
