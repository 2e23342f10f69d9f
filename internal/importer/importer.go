package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcallison/chartline/internal/note"
)

// Load reads raw note records from a file, dispatching on extension.
// JSON files carry structured record maps; HTML files are note exports
// whose body text becomes a single record.
func Load(path string) ([]note.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".html", ".htm":
		return LoadHTML(path)
	default:
		return nil, fmt.Errorf("unsupported import format: %s", path)
	}
}

// LoadJSON reads records from a JSON file. The file may hold a bare
// array of record objects or an object with a "records" array.
func LoadJSON(path string) ([]note.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []note.RawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Records []note.RawRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if wrapped.Records == nil {
		return nil, fmt.Errorf("parsing %s: expected an array of records or a \"records\" key", path)
	}
	return wrapped.Records, nil
}
