package main

import (
	"flag"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/viant/casebot/config"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/vectordb/sqlitevec"
)

const previewRunes = 200

// readerModel pins nothing: Stats, Sample, Purge and Prune ignore the model.
const readerModel = "inspect"

func inspectCmd(args []string) error {
	flags := flag.NewFlagSet("inspect", flag.ExitOnError)
	c := commonFlags(flags)
	sample := flags.Int("sample", 5, "number of chunks to show")
	asJSON := flags.Bool("json", false, "print stats as JSON")
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	cfg, log, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	index, err := openIndex(cfg, readerModel)
	if err != nil {
		return err
	}
	defer index.Close()
	stats, err := index.Stats(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		printJSON(stats)
		return nil
	}
	fmt.Printf("collection: %s\n", stats.Collection)
	fmt.Printf("model: %s\n", orNA(stats.Model))
	fmt.Printf("dimension: %d\n", stats.Dimension)
	fmt.Printf("generation: %s\n", orNA(stats.Generation))
	fmt.Printf("total chunks: %d (archived %d)\n", stats.Active, stats.Archived)
	if !stats.UpdatedAt.IsZero() {
		fmt.Printf("updated: %s\n", stats.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	records, err := index.Sample(ctx, *sample)
	if err != nil {
		return err
	}
	for i, record := range records {
		fmt.Printf("\n--- chunk %d ---\n", i+1)
		fmt.Printf("id: %s\n", record.ID)
		fmt.Printf("source: %s\n", metaValue(record.Meta, document.SourceKey))
		fmt.Printf("page: %s\n", metaValue(record.Meta, document.PageKey))
		fmt.Printf("content: %s\n", preview(record.Content, previewRunes))
	}
	return nil
}

func purgeCmd(args []string) error {
	flags := flag.NewFlagSet("purge", flag.ExitOnError)
	c := commonFlags(flags)
	yes := flags.Bool("yes", false, "confirm deletion")
	flags.Parse(args)
	if !*yes {
		return fmt.Errorf("%w: purge deletes every vector, pass --yes to confirm", config.ErrInvalid)
	}
	return withIndex(c, func(index *sqlitevec.Store) error {
		ctx, cancel := signalContext()
		defer cancel()
		if err := index.Purge(ctx); err != nil {
			return err
		}
		fmt.Println("purged")
		return nil
	})
}

func pruneCmd(args []string) error {
	flags := flag.NewFlagSet("prune", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	return withIndex(c, func(index *sqlitevec.Store) error {
		ctx, cancel := signalContext()
		defer cancel()
		n, err := index.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d archived chunks\n", n)
		return nil
	})
}

func withIndex(c *common, fn func(index *sqlitevec.Store) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	cfg, log, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer log.Sync()
	index, err := openIndex(cfg, readerModel)
	if err != nil {
		return err
	}
	defer index.Close()
	return fn(index)
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

func metaValue(meta map[string]interface{}, key string) string {
	value, ok := meta[key]
	if !ok || value == nil {
		return "N/A"
	}
	return fmt.Sprint(value)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
