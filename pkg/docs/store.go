// Package docs holds the JSONata reference snippets offered to the LLM and
// the selector that picks the subset relevant to a synthesis task.
package docs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed snippets/*.md
var snippetFiles embed.FS

// ErrNotFound indicates a document name with no backing snippet.
var ErrNotFound = errors.New("document not found")

// Store is the document-store collaborator: a key-to-text lookup over the
// reference catalog.
type Store interface {
	Exists(name string) bool
	ReadText(name string) (string, error)
}

// Catalog is the fixed set of selectable document names, in presentation
// order. Selection responses are filtered against this list.
var Catalog = []string{
	"path-operators",
	"comparison-operators",
	"boolean-operators",
	"predicate-queries",
	"string-functions",
	"numeric-functions",
	"aggregation-functions",
	"boolean-functions",
	"array-functions",
	"higher-order-functions",
}

// EmbeddedStore serves the snippets compiled into the binary.
type EmbeddedStore struct{}

// NewEmbeddedStore returns the default store.
func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

// Exists reports whether a snippet with this name is embedded.
func (s *EmbeddedStore) Exists(name string) bool {
	_, err := fs.Stat(snippetFiles, "snippets/"+name+".md")
	return err == nil
}

// ReadText returns the snippet body, or ErrNotFound.
func (s *EmbeddedStore) ReadText(name string) (string, error) {
	data, err := snippetFiles.ReadFile("snippets/" + name + ".md")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return string(data), nil
}
