package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	p := writeFile(t, "casebot.yaml", `
source:
  kind: afs
  rootId: mem://localhost/study
  match:
    exclude: ["*.tmp"]
index:
  dsn: ~/casebot/index.sqlite
  policy: append
chunker:
  size: 800
  overlap: 100
embedder:
  provider: simple
  dimension: 128
agent:
  maxSteps: 4
  requestTimeout: 30s
mcpServer:
  port: 7000
`)
	cfg, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, SourceAFS, cfg.Source.Kind)
	assert.Equal(t, []string{"*.tmp"}, cfg.Source.Match.Exclusions)
	assert.Equal(t, filepath.Join(home, "casebot/index.sqlite"), cfg.Index.DSN)
	assert.Equal(t, cfg.Index.DSN+".lock", cfg.Index.LockPath)
	assert.Equal(t, "append", cfg.Index.Policy)
	assert.Equal(t, "casebot", cfg.Index.Collection)
	assert.Equal(t, 800, cfg.Chunker.Size)
	assert.Equal(t, 4, cfg.Agent.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.Agent.RequestTimeout)
	assert.Equal(t, 3, cfg.Retrieval.K)
	assert.Equal(t, 0.1, cfg.Completion.Temperature)
	assert.Equal(t, "127.0.0.1:7000", cfg.MCPAddr())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SourceDrive, cfg.Source.Kind)
	assert.Equal(t, 1500, cfg.Chunker.Size)
	assert.Equal(t, 250, cfg.Chunker.Overlap)
	assert.NotEmpty(t, cfg.Index.LockPath)
	assert.Equal(t, "127.0.0.1:6061", cfg.MCPAddr())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "source", mutate: func(c *Config) { c.Source.Kind = "dropbox" }},
		{name: "credentials", mutate: func(c *Config) { c.Credentials.Kind = "kerberos" }},
		{name: "dsn", mutate: func(c *Config) { c.Index.DSN = "" }},
		{name: "policy", mutate: func(c *Config) { c.Index.Policy = "merge" }},
		{name: "overlap", mutate: func(c *Config) { c.Chunker.Overlap = c.Chunker.Size }},
		{name: "embedder", mutate: func(c *Config) { c.Embedder.Provider = "cohere" }},
		{name: "completion", mutate: func(c *Config) { c.Completion.Provider = "vertexai" }},
		{name: "steps", mutate: func(c *Config) { c.Agent.MaxSteps = 0 }},
		{name: "k", mutate: func(c *Config) { c.Retrieval.K = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadEnv(t *testing.T) {
	p := writeFile(t, ".env", "CASEBOT_TEST_KEY=from-file\n")
	t.Setenv("CASEBOT_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("CASEBOT_TEST_KEY"))
	require.NoError(t, LoadEnv(p, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CASEBOT_TEST_KEY"))
}

func TestExpandUserPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := expandUserPath("~/a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b"), got)
	got, err = expandUserPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
	_, err = expandUserPath("~other/x")
	assert.Error(t, err)
}

func TestExpandWithSecret_NoRef(t *testing.T) {
	got, err := ExpandWithSecret(context.Background(), "dsn", "")
	require.NoError(t, err)
	assert.Equal(t, "dsn", got)
}
