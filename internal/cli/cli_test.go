package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/litscreen/internal/model"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)
	require.NoError(t, setDefaults(model.DefaultConfig()))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	require.NoError(t, setDefaults(model.DefaultConfig()))
	bindEnv()

	t.Setenv("LITSCREEN_RUN_FOLDS", "10")
	t.Setenv("LITSCREEN_RUN_COOLDOWN", "30s")
	t.Setenv("LITSCREEN_LLM_MODEL", "gpt-4")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Run.Folds)
	assert.Equal(t, 30*time.Second, cfg.Run.Cooldown)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions, "untouched keys keep defaults")
}

func TestLoadConfig_File(t *testing.T) {
	resetViper(t)
	require.NoError(t, setDefaults(model.DefaultConfig()))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  folds: 3\nscrape:\n  page_delay: 5s\n"), 0644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Run.Folds)
	assert.Equal(t, 5*time.Second, cfg.Scrape.PageDelay)
	assert.Equal(t, uint64(123), cfg.Run.Seed)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".litscreen", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	require.Error(t, writeDefaultConfig(path), "existing file is not overwritten")
}

func TestSelectedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer_columns.txt")
	require.NoError(t, os.WriteFile(path, []byte("Col_A\n\n  Col_B  \n"), 0644))

	answerCols, answerColsFile = []string{"Col_X"}, path
	t.Cleanup(func() { answerCols, answerColsFile = nil, "" })

	cols, err := selectedColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"Col_X", "Col_A", "Col_B"}, cols)
}
