package retriever

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/codeflow/sentinel/internal/config"
)

// enumerateFiles walks root and returns candidate files: extension must be in
// the allow-list, and no path element may be a denied or hidden directory.
// Results are in lexical walk order, so ingestion is deterministic.
func enumerateFiles(root string, ingest *config.IngestConfig) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (isHidden(name) || isDenied(name, ingest.ExcludeDirs)) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name) {
			return nil
		}
		if extensionAllowed(strings.ToLower(filepath.Ext(name)), ingest.Extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func isDenied(name string, denied []string) bool {
	for _, d := range denied {
		if name == d {
			return true
		}
	}
	return false
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
