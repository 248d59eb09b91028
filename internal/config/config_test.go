package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		DBType:              "file",
		FileSleep:           "data/sleep.json",
		FileHeart:           "data/heart.json",
		FileWeight:          "data/weight.json",
		ModelTimeout:        60 * time.Second,
		InsightCacheTTL:     24 * time.Hour,
		InsightCacheMaxSize: 256,
		InsightWaitTimeout:  90 * time.Second,
		MaxPromptLen:        4000,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	c := validConfig()
	c.InsightCacheTTL = 0
	assert.Error(t, c.Validate(), "zero TTL would expire every cached insight immediately")

	c = validConfig()
	c.InsightCacheMaxSize = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBType = "postgres"
	assert.Error(t, c.Validate(), "postgres backend needs a DSN")

	c = validConfig()
	c.Env = "production"
	assert.Error(t, c.Validate(), "remote auth URL required outside development")

	c = validConfig()
	c.InsightWaitTimeout = 0
	assert.Error(t, c.Validate())
}
