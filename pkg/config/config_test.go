package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/internal/models"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.Backup.Timeout)
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.Brokers)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "Postgres")
	v.Set("BACKUP_URL", "https://backup.example/")
	v.Set("BACKUP_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := fromViper(v)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "https://backup.example", cfg.Backup.URL)
	assert.True(t, cfg.Backup.Enabled())
	assert.Equal(t, 15*time.Second, cfg.Backup.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadSeed(t *testing.T) {
	settings, err := LoadSeed("")
	require.NoError(t, err)
	assert.Nil(t, settings)

	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
task_types = ["homework", "quiz"]

[group_names]
A = "Otters"

[rates]
fish = 10
cookie = 100

[[jobs]]
id = "librarian"
title = "Librarian"
salary = 2
unit = "fish"
cycle = "weekly"
assignee_ids = ["s1"]

[[behavior_rules]]
id = "helpful"
label = "Helping a friend"
points = 5
category = "positive"

[[products]]
id = "sticker"
name = "Sticker"
price = 3
unit = "fish"
`), 0o644))

	settings, err = LoadSeed(path)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, []string{"homework", "quiz"}, settings.TaskTypes)
	assert.Equal(t, "Otters", settings.GroupNames[models.GroupID("A")])
	assert.Equal(t, currency.Rates{Fish: 10, Cookie: 100}, settings.Rates)
	require.Len(t, settings.Jobs, 1)
	assert.Equal(t, currency.UnitFish, settings.Jobs[0].Unit)
	assert.Equal(t, []string{"s1"}, settings.Jobs[0].AssigneeIDs)
	require.Len(t, settings.Products, 1)
	assert.Equal(t, int64(3), settings.Products[0].Price)
}

func TestLoadSeedRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte("colour = \"blue\"\n"), 0o644))

	_, err := LoadSeed(path)
	assert.Error(t, err)
}
