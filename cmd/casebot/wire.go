package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/casebot/agent"
	"github.com/viant/casebot/chunker"
	"github.com/viant/casebot/config"
	"github.com/viant/casebot/crawler"
	afsstore "github.com/viant/casebot/crawler/afs"
	"github.com/viant/casebot/crawler/drive"
	"github.com/viant/casebot/credential"
	"github.com/viant/casebot/db/sqliteutil"
	"github.com/viant/casebot/embeddings"
	"github.com/viant/casebot/embeddings/ollama"
	"github.com/viant/casebot/embeddings/openai"
	"github.com/viant/casebot/embeddings/simple"
	"github.com/viant/casebot/embeddings/vertexai"
	"github.com/viant/casebot/ingest"
	"github.com/viant/casebot/llm"
	ollamallm "github.com/viant/casebot/llm/ollama"
	openaillm "github.com/viant/casebot/llm/openai"
	"github.com/viant/casebot/logger"
	"github.com/viant/casebot/matching"
	"github.com/viant/casebot/matching/option"
	"github.com/viant/casebot/solver"
	"github.com/viant/casebot/tool"
	"github.com/viant/casebot/vectordb"
	"github.com/viant/casebot/vectordb/sqlitevec"
)

func newEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	e := cfg.Embedder
	switch e.Provider {
	case "simple":
		return simple.New(e.Dimension), nil
	case "ollama":
		baseURL := e.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		return &ollama.Embedder{C: ollama.NewClient(e.Model, baseURL)}, nil
	case "vertexai":
		project := e.Project
		if project == "" {
			project = os.Getenv("VERTEXAI_PROJECT_ID")
		}
		if project == "" {
			return nil, fmt.Errorf("%w: embedder.project is required for vertexai", config.ErrInvalid)
		}
		return vertexai.NewEmbedder(project, e.Model, e.Location, e.Scopes), nil
	default:
		return &openai.Embedder{C: openai.NewClient(e.APIKey, e.Model, openai.WithBaseURL(e.BaseURL), openai.WithDimensions(e.Dimension))}, nil
	}
}

func newCompleter(cfg *config.Config, temperature float64) llm.Completer {
	c := cfg.Completion
	if c.Provider == "ollama" {
		baseURL := c.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		return ollamallm.NewClient(c.Model, ollamallm.WithBaseURL(baseURL), ollamallm.WithTemperature(temperature))
	}
	return openaillm.NewClient(c.APIKey, c.Model, openaillm.WithBaseURL(c.BaseURL), openaillm.WithTemperature(temperature))
}

func openIndex(cfg *config.Config, model string) (*sqlitevec.Store, error) {
	policy, err := vectordb.ParsePolicy(cfg.Index.Policy)
	if err != nil {
		return nil, err
	}
	if dir := indexDir(cfg.Index.DSN); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	opts := []sqlitevec.Option{
		sqlitevec.WithDSN(cfg.Index.DSN),
		sqlitevec.WithCollection(cfg.Index.Collection),
		sqlitevec.WithEmbeddingModel(model),
		sqlitevec.WithPolicy(policy),
	}
	if cfg.Index.Table != "" {
		opts = append(opts, sqlitevec.WithTable(cfg.Index.Table))
	}
	return sqlitevec.NewStore(opts...)
}

func indexDir(dsn string) string {
	if dsn == "" || sqliteutil.IsMemory(dsn) || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	return filepath.Dir(dsn)
}

func newProvider(cfg *config.Config) credential.Provider {
	c := cfg.Credentials
	switch c.Kind {
	case config.CredentialsDefault:
		return &credential.Default{Scopes: c.Scopes}
	case config.CredentialsNone:
		return nil
	default:
		return &credential.TokenFile{ClientSecretPath: c.ClientSecret, TokenPath: c.Token, Scopes: c.Scopes}
	}
}

func newStoreFactory(cfg *config.Config) (ingest.StoreFactory, error) {
	if cfg.Source.Kind == config.SourceAFS {
		opts := cfg.Source.Match.Options()
		if cfg.Source.IgnoreFile != "" {
			f, err := os.Open(cfg.Source.IgnoreFile)
			if err != nil {
				return nil, fmt.Errorf("ignore file: %w", err)
			}
			defer f.Close()
			opts = append(opts, option.WithIgnoreFile(f))
		}
		matcher := matching.New(opts...)
		root := cfg.Source.RootID
		return func(ctx context.Context, _ *credential.Session) (crawler.Store, error) {
			return afsstore.New(afsstore.WithMatcher(matcher), afsstore.WithRoot(root)), nil
		}, nil
	}
	return func(ctx context.Context, session *credential.Session) (crawler.Store, error) {
		return drive.New(ctx, session)
	}, nil
}

func newIngestService(cfg *config.Config, embedder embeddings.Embedder, index vectordb.Index, log *logger.Logger) (*ingest.Service, error) {
	if cfg.Source.Kind == config.SourceAFS && cfg.Source.RootID != "" {
		root, err := afsstore.Normalize(cfg.Source.RootID)
		if err != nil {
			return nil, err
		}
		cfg.Source.RootID = root
	}
	splitter, err := chunker.New(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	opts := []ingest.Option{
		ingest.WithChunker(splitter),
		ingest.WithBatchSize(cfg.Embedder.BatchSize),
		ingest.WithLockPath(cfg.Index.LockPath),
		ingest.WithLogger(log),
	}
	if provider := newProvider(cfg); provider != nil && cfg.Source.Kind == config.SourceDrive {
		opts = append(opts, ingest.WithCredentials(provider))
	}
	newStore, err := newStoreFactory(cfg)
	if err != nil {
		return nil, err
	}
	return ingest.New(newStore, embedder, index, opts...)
}

// app bundles the serving components.
type app struct {
	index     *sqlitevec.Store
	tools     *tool.Set
	assistant *agent.Assistant
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index, err := openIndex(cfg, embedder.Model())
	if err != nil {
		return nil, err
	}
	retrieval := tool.NewRetrieval(embedder, index, tool.WithK(cfg.Retrieval.K), tool.WithCache(cfg.Retrieval.CacheSize))
	if err := retrieval.Validate(ctx); err != nil {
		_ = index.Close()
		return nil, err
	}
	compute := tool.NewCompute(solver.NewLLMMath(newCompleter(cfg, 0)))
	set := tool.NewSet(retrieval, compute)

	loopOpts := []agent.Option{
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithLanguage(cfg.Agent.Language),
		agent.WithLogger(log),
	}
	if cfg.Agent.Instructions != "" {
		text, err := os.ReadFile(cfg.Agent.Instructions)
		if err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("agent instructions: %w", err)
		}
		loopOpts = append(loopOpts, agent.WithInstructions(string(text)))
	}
	loop := agent.NewLoop(newCompleter(cfg, cfg.Completion.Temperature), set, loopOpts...)
	assistant := agent.NewAssistant(loop, agent.WithRequestTimeout(cfg.Agent.RequestTimeout), agent.WithAssistantLogger(log))
	return &app{index: index, tools: set, assistant: assistant}, nil
}

func (a *app) Close() error {
	return a.index.Close()
}
