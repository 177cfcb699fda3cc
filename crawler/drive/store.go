// Package drive implements a crawler store over the Google Drive v3 API.
package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/casebot/credential"
	"github.com/viant/casebot/crawler"
	"github.com/viant/casebot/extractor"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	FolderMimeType       = "application/vnd.google-apps.folder"
	DocumentMimeType     = "application/vnd.google-apps.document"
	SpreadsheetMimeType  = "application/vnd.google-apps.spreadsheet"
	PresentationMimeType = "application/vnd.google-apps.presentation"
	nativePrefix         = "application/vnd.google-apps."

	docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfMimeType  = "application/pdf"

	listFields = "nextPageToken, files(id, name, mimeType, size)"
	pageSize   = 1000
)

// export maps native Google formats to a downloadable format.
var export = map[string]struct{ mimeType, ext string }{
	DocumentMimeType:     {mimeType: docxMimeType, ext: ".docx"},
	SpreadsheetMimeType:  {mimeType: xlsxMimeType, ext: ".xlsx"},
	PresentationMimeType: {mimeType: pdfMimeType, ext: ".pdf"},
}

var mimeExt = map[string]string{
	pdfMimeType:                ".pdf",
	docxMimeType:               ".docx",
	xlsxMimeType:               ".xlsx",
	"application/vnd.ms-excel": ".xls",
	"text/plain":               ".txt",
	"text/markdown":            ".md",
	"text/csv":                 ".csv",
}

// Store lists Drive folders; container ids are folder ids.
type Store struct {
	service *gdrive.Service
}

// New creates a store authenticated with session.
func New(ctx context.Context, session *credential.Session, opts ...option.ClientOption) (*Store, error) {
	if session != nil && session.TokenSource != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(session.TokenSource)}, opts...)
	}
	service, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: %w", err)
	}
	return &Store{service: service}, nil
}

// List returns non-trashed children of folderID.
func (s *Store) List(ctx context.Context, folderID string) ([]*crawler.Entry, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))
	var entries []*crawler.Entry
	pageToken := ""
	for {
		call := s.service.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(pageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("drive: list %s: %w", folderID, err)
		}
		for _, file := range resp.Files {
			entries = append(entries, newEntry(file))
		}
		if resp.NextPageToken == "" {
			return entries, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Download returns file content; native documents are exported first.
func (s *Store) Download(ctx context.Context, entry *crawler.Entry) ([]byte, error) {
	var (
		resp *http.Response
		err  error
	)
	if target, ok := export[entry.MimeType]; ok {
		resp, err = s.service.Files.Export(entry.ID, target.mimeType).Context(ctx).Download()
	} else {
		resp, err = s.service.Files.Get(entry.ID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return nil, fmt.Errorf("drive: download %s: %w", entry.Name, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func newEntry(file *gdrive.File) *crawler.Entry {
	entry := &crawler.Entry{
		ID:       file.Id,
		Name:     file.Name,
		MimeType: file.MimeType,
		Size:     file.Size,
	}
	switch {
	case file.MimeType == FolderMimeType:
		entry.Kind = crawler.KindFolder
	case export[file.MimeType].ext != "":
		entry.Ext = export[file.MimeType].ext
	case strings.HasPrefix(file.MimeType, nativePrefix):
		// forms, drawings and other native types have no export target
	default:
		entry.Ext = extractor.Ext(file.Name)
		if entry.Ext == "" {
			entry.Ext = mimeExt[file.MimeType]
		}
	}
	return entry
}

func escapeQuery(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}
