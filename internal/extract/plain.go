package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain decodes content as UTF-8 text. Source and markdown files are
// expected to be valid already; any invalid byte sequence is replaced with
// U+FFFD so a stray binary region cannot poison downstream chunking.
func extractPlain(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return text, nil
}
