package afs

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/casebot/crawler"
	"github.com/viant/casebot/matching"
	"github.com/viant/casebot/matching/option"
)

func TestStore_Crawl(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	root := "mem://localhost/casebot/study"
	files := map[string]string{
		"guide.md":             "MECE framework",
		"cases/market.txt":     "market sizing",
		"cases/deep/profit.md": "profitability",
		"cases/~$lock.docx":    "office lock",
	}
	for name, content := range files {
		require.NoError(t, fs.Upload(ctx, root+"/"+name, 0644, bytes.NewReader([]byte(content))))
	}

	store := New(WithService(fs), WithMatcher(matching.New(option.WithExclusionPatterns("~$*"))))
	result, err := crawler.New(store).Crawl(ctx, root)
	require.NoError(t, err)

	var paths []string
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"cases/deep/profit.md", "cases/market.txt", "guide.md"}, paths)

	for _, f := range result.Files {
		if f.Name == "guide.md" {
			assert.Equal(t, ".md", f.Ext)
			data, err := store.Download(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, "MECE framework", string(data))
		}
	}
}

func crawlPaths(t *testing.T, store *Store, root string) []string {
	t.Helper()
	result, err := crawler.New(store).Crawl(context.Background(), root)
	require.NoError(t, err)
	var paths []string
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

func upload(t *testing.T, fs afs.Service, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, fs.Upload(context.Background(), root+"/"+name, 0644, bytes.NewReader([]byte(content))))
	}
}

func TestStore_Crawl_IncludeReachesNestedFiles(t *testing.T) {
	fs := afs.New()
	root := "mem://localhost/casebot/include"
	upload(t, fs, root, map[string]string{
		"top.pdf":          "top",
		"cases/nested.pdf": "nested",
		"cases/notes.txt":  "notes",
	})

	store := New(WithService(fs), WithMatcher(matching.New(option.WithInclusionPatterns("**/*.pdf"))))
	assert.Equal(t, []string{"cases/nested.pdf", "top.pdf"}, crawlPaths(t, store, root))
}

func TestStore_Crawl_AnchoredIgnorePattern(t *testing.T) {
	fs := afs.New()
	root := "mem://localhost/casebot/anchored"
	upload(t, fs, root, map[string]string{
		"keep.md":            "keep",
		"drafts/old.md":      "old",
		"cases/drafts/ok.md": "nested drafts are not anchored",
	})

	matcher := matching.New(option.WithIgnoreFile(strings.NewReader("/drafts\n")))
	testCases := []struct {
		description string
		store       *Store
	}{
		{description: "explicit root", store: New(WithService(fs), WithMatcher(matcher), WithRoot(root))},
		{description: "first listed container", store: New(WithService(fs), WithMatcher(matcher))},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, []string{"cases/drafts/ok.md", "keep.md"}, crawlPaths(t, testCase.store, root))
		})
	}
}
