package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stsysd/nippo/config"
	"github.com/stsysd/nippo/store"
)

func TestMigrateCommand(t *testing.T) {
	t.Setenv("NIPPO_BACKEND", "")
	t.Setenv("NIPPO_LOG_LEVEL", "error")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "nippo.db"))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"migrate", "--backend", "table"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "migrated sqlite3 database\n", out.String())

	// フラグの値はプロセスの環境変数に書き込まれない
	assert.Equal(t, "", os.Getenv("NIPPO_BACKEND"))
}

func TestMigrateCommandRejectsFileBackend(t *testing.T) {
	t.Setenv("NIPPO_BACKEND", "")
	t.Setenv("NIPPO_DATA_DIR", t.TempDir())

	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--backend", "file"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table")
	assert.Equal(t, "", os.Getenv("NIPPO_BACKEND"))
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	s, err := openStore(&config.Config{Backend: config.BackendFile, CSVFile: filepath.Join(dir, "r.csv")}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, s)
	require.NoError(t, s.Close())

	s, err = openStore(&config.Config{Backend: config.BackendTable, DatabaseURL: "sqlite://" + filepath.Join(dir, "n.db")}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &store.TableStore{}, s)
	require.NoError(t, s.Close())

	_, err = openStore(&config.Config{Backend: "redis"}, zap.NewNop())
	assert.Error(t, err)
}
