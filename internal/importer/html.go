package importer

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/mcallison/chartline/internal/note"
)

// LoadHTML extracts the readable text of an HTML note export and
// returns it as a single record. Navigation chrome, styling, and
// boilerplate are stripped by readability; the document title becomes
// the record's type hint when present.
func LoadHTML(path string) ([]note.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	article, err := readability.FromReader(f, &url.URL{Scheme: "file", Path: path})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("extracting %s: no readable text", path)
	}

	record := note.RawRecord{"content": text, "source": filepath.Base(path)}
	if title := strings.TrimSpace(article.Title); title != "" {
		record["type"] = title
	}
	return []note.RawRecord{record}, nil
}
