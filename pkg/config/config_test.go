package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/chapter.db", cfg.Database.Path)
	assert.Equal(t, CompositionStoreMemory, cfg.Compositions.Store)
	assert.Equal(t, 2*time.Hour, cfg.Compositions.SessionTTL)
	assert.False(t, cfg.Statistics.CacheEnabled)
	assert.Equal(t, 5, cfg.Backups.Retries)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestUnknownCompositionStoreFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("COMPOSITION_STORE", "etcd")

	cfg := fromViper(v)

	assert.Equal(t, CompositionStoreMemory, cfg.Compositions.Store)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
}
