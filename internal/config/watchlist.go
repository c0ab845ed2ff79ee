package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/validation"
)

//go:embed watchlist.yaml
var defaultWatchlist []byte

type watchlistFile struct {
	Protocols []model.TrackedProtocolConfig `yaml:"protocols"`
}

// LoadWatchlist reads the tracked protocol roster from path, or from the
// embedded default when path is empty. The roster is validated and category
// names are canonicalized.
func LoadWatchlist(path string) ([]model.TrackedProtocolConfig, error) {
	if path == "" {
		return DecodeWatchlist(bytes.NewReader(defaultWatchlist))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	return DecodeWatchlist(f)
}

// DecodeWatchlist parses and validates a YAML watchlist document.
func DecodeWatchlist(r io.Reader) ([]model.TrackedProtocolConfig, error) {
	var doc watchlistFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}

	if err := validation.Watchlist(doc.Protocols); err != nil {
		return nil, fmt.Errorf("invalid watchlist: %w", err)
	}

	for i := range doc.Protocols {
		// validated above
		doc.Protocols[i].Category, _ = model.ParseCategory(string(doc.Protocols[i].Category))
	}
	return doc.Protocols, nil
}

// SnapshotSpaces maps each configured governance space to its protocol slug.
func SnapshotSpaces(configs []model.TrackedProtocolConfig) map[string]string {
	spaces := make(map[string]string)
	for _, c := range configs {
		if c.SnapshotSpace != "" {
			spaces[c.SnapshotSpace] = c.Slug
		}
	}
	return spaces
}
