package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/casebot/crawler"
	"google.golang.org/api/option"
)

type fakeFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

func newTestStore(t *testing.T, tree map[string][]fakeFile, content map[string]string) (*Store, *[]string) {
	t.Helper()
	var exported []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		switch {
		case path == "files":
			q := r.URL.Query().Get("q")
			parent := strings.TrimSuffix(strings.TrimPrefix(q, "'"), "' in parents and trashed=false")
			files, ok := tree[parent]
			if !ok {
				http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": files})
		case strings.HasSuffix(path, "/export"):
			id := strings.TrimSuffix(strings.TrimPrefix(path, "files/"), "/export")
			exported = append(exported, id+"|"+r.URL.Query().Get("mimeType"))
			_, _ = w.Write([]byte(content[id]))
		case strings.HasPrefix(path, "files/"):
			_, _ = w.Write([]byte(content[strings.TrimPrefix(path, "files/")]))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	store, err := New(context.Background(), nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return store, &exported
}

func TestStore_Crawl(t *testing.T) {
	tree := map[string][]fakeFile{
		"root": {
			{ID: "f1", Name: "Case Book.pdf", MimeType: "application/pdf"},
			{ID: "d1", Name: "Frameworks", MimeType: FolderMimeType},
			{ID: "d2", Name: "Locked", MimeType: FolderMimeType},
		},
		"d1": {
			{ID: "g1", Name: "Profitability", MimeType: DocumentMimeType},
			{ID: "g2", Name: "Survey", MimeType: "application/vnd.google-apps.form"},
		},
	}
	content := map[string]string{"f1": "pdf-bytes", "g1": "docx-bytes"}
	store, exported := newTestStore(t, tree, content)

	result, err := crawler.New(store).Crawl(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, result.Files, 3)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "d2", result.Failures[0].ContainerID)

	byName := map[string]*crawler.Entry{}
	for _, f := range result.Files {
		byName[f.Name] = f
	}
	assert.Equal(t, ".pdf", byName["Case Book.pdf"].Ext)
	assert.Equal(t, ".docx", byName["Profitability"].Ext)
	assert.Equal(t, "Frameworks/Profitability", byName["Profitability"].Path)
	assert.Equal(t, "", byName["Survey"].Ext)

	data, err := store.Download(context.Background(), byName["Profitability"])
	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(data))
	assert.Equal(t, []string{"g1|" + docxMimeType}, *exported)

	data, err = store.Download(context.Background(), byName["Case Book.pdf"])
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
}
