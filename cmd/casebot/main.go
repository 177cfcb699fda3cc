package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/gops/agent"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	casebot "github.com/viant/casebot/agent"
	"github.com/viant/casebot/config"
	"github.com/viant/casebot/ingest"
	"github.com/viant/casebot/logger"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "ingest":
		err = ingestCmd(os.Args[2:])
	case "ask":
		err = askCmd(os.Args[2:])
	case "serve":
		err = serveCmd(os.Args[2:])
	case "inspect":
		err = inspectCmd(os.Args[2:])
	case "purge":
		err = purgeCmd(os.Args[2:])
	case "prune":
		err = pruneCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "casebot %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: casebot <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ingest   Crawl the source folder and rebuild the vector index")
	fmt.Fprintln(os.Stderr, "  ask      Answer a question from the command line")
	fmt.Fprintln(os.Stderr, "  serve    Run the MCP server (retrieve, compute, ask, stats)")
	fmt.Fprintln(os.Stderr, "  inspect  Show index statistics and sample chunks")
	fmt.Fprintln(os.Stderr, "  purge    Delete every vector of the collection")
	fmt.Fprintln(os.Stderr, "  prune    Hard-delete superseded generations")
}

// common holds flags shared by every command.
type common struct {
	configPath *string
	envPath    *string
	logLevel   *string
}

func commonFlags(flags *flag.FlagSet) *common {
	return &common{
		configPath: flags.String("config", "", "config yaml (optional, defaults to ~/.casebot/config.yaml if present)"),
		envPath:    flags.String("env", ".env", "dotenv file with API keys (optional)"),
		logLevel:   flags.String("log-level", "", "log level override (debug|info|warn|error)"),
	}
}

func (c *common) load(ctx context.Context) (*config.Config, *logger.Logger, error) {
	if err := config.LoadEnv(*c.envPath); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(ctx, resolveConfigPath(*c.configPath))
	if err != nil {
		return nil, nil, err
	}
	if *c.logLevel != "" {
		cfg.Log.Level = *c.logLevel
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level, logger.WithFile(cfg.Log.File))
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := home + "/.casebot/config.yaml"
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func ingestCmd(args []string) error {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	c := commonFlags(flags)
	root := flags.String("root", "", "root folder id or afs location (defaults to source.rootId)")
	source := flags.String("source", "", "source kind override (drive|afs)")
	policy := flags.String("policy", "", "generation policy override (replace|append)")
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	cfg, log, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	if *source != "" {
		cfg.Source.Kind = *source
	}
	if *policy != "" {
		cfg.Index.Policy = *policy
	}
	if *root != "" {
		cfg.Source.RootID = *root
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	index, err := openIndex(cfg, embedder.Model())
	if err != nil {
		return err
	}
	defer index.Close()
	srv, err := newIngestService(cfg, embedder, index, log)
	if err != nil {
		return err
	}
	summary, err := srv.Ingest(ctx, cfg.Source.RootID)
	if summary != nil {
		printJSON(summary)
	}
	if errors.Is(err, ingest.ErrNothingToIngest) {
		log.Warn("no documents found", "root", cfg.Source.RootID)
	}
	return err
}

func askCmd(args []string) error {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	c := commonFlags(flags)
	question := flags.String("q", "", "question (defaults to remaining arguments)")
	history := flags.String("history", "", "chat history JSON: [[question, answer], ...]")
	flags.Parse(args)

	text := *question
	if text == "" {
		text = strings.Join(flags.Args(), " ")
	}
	req := casebot.Request{Question: text}
	if *history != "" {
		if err := json.Unmarshal([]byte(*history), &req.ChatHistory); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	cfg, log, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()
	resp, err := app.assistant.Answer(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(resp.Answer)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		fmt.Fprintf(os.Stderr, "gops: %v\n", err)
	}
}
