// Package config loads the casebot YAML configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"

	"github.com/viant/casebot/chunker"
	"github.com/viant/casebot/matching/option"
	"github.com/viant/casebot/vectordb"
)

// ErrInvalid is returned for configuration that fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Source kinds.
const (
	SourceDrive = "drive"
	SourceAFS   = "afs"
)

// Credential kinds.
const (
	CredentialsTokenFile = "tokenFile"
	CredentialsDefault   = "default"
	CredentialsNone      = "none"
)

// Config is the root configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Index       IndexConfig       `yaml:"index"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Completion  CompletionConfig  `yaml:"completion"`
	Agent       AgentConfig       `yaml:"agent"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	MCPServer   MCPServerConfig   `yaml:"mcpServer"`
	Log         LogConfig         `yaml:"log"`
}

// SourceConfig selects the document store and crawl root.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	// RootID is a Drive folder id or an afs location.
	RootID string         `yaml:"rootId"`
	Match  option.Options `yaml:"match"`
	// IgnoreFile holds extra gitignore-style exclusions for afs sources.
	IgnoreFile string `yaml:"ignoreFile,omitempty"`
}

// CredentialsConfig selects how the store session is authenticated.
type CredentialsConfig struct {
	Kind         string   `yaml:"kind"`
	ClientSecret string   `yaml:"clientSecret"`
	Token        string   `yaml:"token"`
	Scopes       []string `yaml:"scopes"`
}

// IndexConfig defines vector index settings.
type IndexConfig struct {
	DSN        string `yaml:"dsn"`
	Secret     string `yaml:"secret,omitempty"`
	Collection string `yaml:"collection"`
	Table      string `yaml:"table"`
	Policy     string `yaml:"policy"`
	LockPath   string `yaml:"lockPath"`
}

// ChunkerConfig defines chunk window settings in characters.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects the embedding service.
type EmbedderConfig struct {
	Provider  string   `yaml:"provider"`
	Model     string   `yaml:"model"`
	APIKey    string   `yaml:"apiKey,omitempty"`
	Secret    string   `yaml:"secret,omitempty"`
	BaseURL   string   `yaml:"baseURL,omitempty"`
	BatchSize int      `yaml:"batchSize"`
	Dimension int      `yaml:"dimension,omitempty"`
	Project   string   `yaml:"project,omitempty"`
	Location  string   `yaml:"location,omitempty"`
	Scopes    []string `yaml:"scopes,omitempty"`
}

// CompletionConfig selects the chat completion service.
type CompletionConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey,omitempty"`
	Secret      string  `yaml:"secret,omitempty"`
	BaseURL     string  `yaml:"baseURL,omitempty"`
	Temperature float64 `yaml:"temperature"`
}

// AgentConfig bounds the agent loop.
type AgentConfig struct {
	MaxSteps       int           `yaml:"maxSteps"`
	Language       string        `yaml:"language"`
	Instructions   string        `yaml:"instructions,omitempty"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// RetrievalConfig defines retrieval settings.
type RetrievalConfig struct {
	K         int `yaml:"k"`
	CacheSize int `yaml:"cacheSize"`
}

// MCPServerConfig defines MCP server settings.
type MCPServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
	// File enables a rotated JSON log file in addition to stderr.
	File string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{Kind: SourceDrive},
		Credentials: CredentialsConfig{
			Kind:         CredentialsTokenFile,
			ClientSecret: "credentials.json",
			Token:        "token.json",
		},
		Index: IndexConfig{
			DSN:        "~/.casebot/index.sqlite",
			Collection: "casebot",
			Policy:     string(vectordb.PolicyReplace),
		},
		Chunker:    ChunkerConfig{Size: chunker.DefaultSize, Overlap: chunker.DefaultOverlap},
		Embedder:   EmbedderConfig{Provider: "openai", Model: "text-embedding-3-small", BatchSize: 64},
		Completion: CompletionConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.1},
		Agent:      AgentConfig{MaxSteps: 8, RequestTimeout: 2 * time.Minute},
		Retrieval:  RetrievalConfig{K: 3, CacheSize: 1000},
		Log:        LogConfig{Mode: "prod", Level: "info"},
	}
}

// Load reads path over the defaults, expands user paths and secrets and
// validates the result. An empty path yields the defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		path, err := expandUserPath(path)
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.expand(ctx); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expand(ctx context.Context) error {
	var err error
	for _, p := range []*string{&c.Index.DSN, &c.Index.LockPath, &c.Credentials.ClientSecret, &c.Credentials.Token, &c.Agent.Instructions, &c.Log.File, &c.Source.IgnoreFile} {
		if *p, err = expandUserPath(*p); err != nil {
			return err
		}
	}
	if c.Source.Kind == SourceAFS && strings.HasPrefix(strings.TrimSpace(c.Source.RootID), "~") {
		if c.Source.RootID, err = expandUserPath(c.Source.RootID); err != nil {
			return err
		}
	}
	if c.Index.DSN, err = ExpandWithSecret(ctx, c.Index.DSN, c.Index.Secret); err != nil {
		return err
	}
	if c.Embedder.APIKey, err = ExpandWithSecret(ctx, c.Embedder.APIKey, c.Embedder.Secret); err != nil {
		return err
	}
	if c.Completion.APIKey, err = ExpandWithSecret(ctx, c.Completion.APIKey, c.Completion.Secret); err != nil {
		return err
	}
	if c.Index.LockPath == "" && c.Index.DSN != "" && !strings.Contains(c.Index.DSN, ":memory:") {
		c.Index.LockPath = strings.SplitN(c.Index.DSN, "?", 2)[0] + ".lock"
	}
	return nil
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDrive, SourceAFS:
	default:
		return fmt.Errorf("%w: source.kind %q", ErrInvalid, c.Source.Kind)
	}
	switch c.Credentials.Kind {
	case CredentialsTokenFile, CredentialsDefault, CredentialsNone:
	default:
		return fmt.Errorf("%w: credentials.kind %q", ErrInvalid, c.Credentials.Kind)
	}
	if strings.TrimSpace(c.Index.DSN) == "" {
		return fmt.Errorf("%w: index.dsn is required", ErrInvalid)
	}
	if _, err := vectordb.ParsePolicy(c.Index.Policy); err != nil {
		return fmt.Errorf("%w: index.policy: %v", ErrInvalid, err)
	}
	if _, err := chunker.New(c.Chunker.Size, c.Chunker.Overlap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Embedder.Provider {
	case "openai", "ollama", "vertexai", "simple":
	default:
		return fmt.Errorf("%w: embedder.provider %q", ErrInvalid, c.Embedder.Provider)
	}
	switch c.Completion.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("%w: completion.provider %q", ErrInvalid, c.Completion.Provider)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("%w: agent.maxSteps must be positive", ErrInvalid)
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be positive", ErrInvalid)
	}
	return nil
}

// MCPAddr returns the MCP listen address.
func (c *Config) MCPAddr() string {
	if c.MCPServer.Addr != "" {
		return c.MCPServer.Addr
	}
	if c.MCPServer.Port > 0 {
		return fmt.Sprintf("127.0.0.1:%d", c.MCPServer.Port)
	}
	return "127.0.0.1:6061"
}

// LoadEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		p, err := expandUserPath(p)
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load env %s: %w", p, err)
		}
	}
	return nil
}

// ExpandWithSecret loads a scy secret and expands its placeholders in text.
func ExpandWithSecret(ctx context.Context, text, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return text, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("config: secret %q provided but value is empty", secretRef)
	}
	sec, err := secret.New().Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(text), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
}
