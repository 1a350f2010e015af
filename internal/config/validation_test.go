package config_test

import (
	"errors"
	"testing"

	"pulpit/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	valid := config.Config{
		DBHost:        "localhost",
		DBUser:        "user",
		DBName:        "db",
		LexicalWeight: 0.6, SemanticWeight: 0.4,
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{name: "Valid Config", mutate: func(c *config.Config) {}},
		{name: "Missing DBHost", mutate: func(c *config.Config) { c.DBHost = "" }, wantErr: true},
		{name: "Missing DBUser", mutate: func(c *config.Config) { c.DBUser = "" }, wantErr: true},
		{name: "Missing DBName", mutate: func(c *config.Config) { c.DBName = "" }, wantErr: true},
		{name: "Negative Weight", mutate: func(c *config.Config) { c.SemanticWeight = -1 }, wantErr: true},
		{name: "Zero Weights", mutate: func(c *config.Config) { c.LexicalWeight = 0; c.SemanticWeight = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrMissingRequired))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
