package models

// ChangedFile is one file entry from a parsed diff.
type ChangedFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Language  string `json:"language"`
	IsNew     bool   `json:"is_new"`
}
