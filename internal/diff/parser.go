// Package diff parses unified diff output into per-file change summaries.
package diff

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/codeflow/sentinel/internal/models"
)

var extToLanguage = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".py":    "python",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".kt":    "kotlin",
	".swift": "swift",
	".sh":    "shell",
	".sql":   "sql",
	".md":    "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
}

// DetectLanguage returns the language for a file path based on its extension,
// or "unknown".
func DetectLanguage(path string) string {
	if lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "unknown"
}

// Parse reads unified diff text (git diff output) and returns one entry per
// changed file, in encounter order, with added/deleted line counts, detected
// language, and new-file flag.
func Parse(diffText string) []models.ChangedFile {
	var (
		files   []models.ChangedFile
		current *models.ChangedFile
	)
	scanner := bufio.NewScanner(strings.NewReader(diffText))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			if current != nil {
				files = append(files, *current)
			}
			current = &models.ChangedFile{Path: pathFromHeader(line)}
			current.Language = DetectLanguage(current.Path)
		case strings.HasPrefix(line, "new file mode"):
			if current != nil {
				current.IsNew = true
			}
		case strings.HasPrefix(line, "+++ b/"):
			// Rename targets carry the authoritative path.
			if current != nil {
				current.Path = strings.TrimPrefix(line, "+++ b/")
				current.Language = DetectLanguage(current.Path)
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			if current != nil {
				current.Additions++
			}
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			if current != nil {
				current.Deletions++
			}
		}
	}
	if current != nil {
		files = append(files, *current)
	}
	return files
}

// pathFromHeader extracts the b-side path from a "diff --git a/x b/y" line.
func pathFromHeader(line string) string {
	if i := strings.Index(line, " b/"); i >= 0 {
		return line[i+len(" b/"):]
	}
	fields := strings.Fields(line)
	if len(fields) > 0 {
		return strings.TrimPrefix(fields[len(fields)-1], "b/")
	}
	return ""
}
