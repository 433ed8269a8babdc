package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop-companion/internal/config"
	"tabletop-companion/internal/domain"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/tabletop.yaml", "migrate", "--help"},
			wantFlag: "/etc/tabletop.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "db", "tabletop.db")
	t.Setenv("TABLETOP_DATABASE_DRIVER", "sqlite")
	t.Setenv("TABLETOP_DATABASE_PATH", dbPath)
	t.Setenv("TABLETOP_LOG_LEVEL", "error")
	configFile = ""

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"migrate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Migrations completed successfully")
	_, err := os.Stat(dbPath)
	require.NoError(t, err)

	var cfg config.Config
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = dbPath
	st, err := openStores(context.Background(), cfg)
	require.NoError(t, err)
	defer st.close()

	_, err = st.users.Create(context.Background(), &domain.User{Email: "m@example.com", PasswordHash: "x"})
	assert.NoError(t, err)
}

func TestServeCommand_RequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TABLETOP_AUTH_JWTSECRET", "")
	t.Setenv("JWT_SECRET", "")
	configFile = ""

	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"serve"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestOpenStores_RejectsUnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.Database.Driver = "mysql"

	_, err := openStores(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger, err = newLogger("")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestBuildExporter_DisabledWithoutBucket(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var cfg config.Config
	exporter, err := buildExporter(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, exporter)
}
