package palette

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Store persists user-created palettes as a JSON document holding
// parallel name and color lists. The document format is a boundary
// contract, not part of the core: colors serialize as [r,g,b] triples.
type Store struct {
	Path string
}

type storeDoc struct {
	Names    []string  `json:"names"`
	Palettes []Palette `json:"palettes"`
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultStorePath places the store under the user's config directory.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve config directory: %w", err)
	}
	return filepath.Join(dir, "pixels", "palettes.json"), nil
}

// Load returns all saved palettes and their names. A missing store file
// is not an error: it yields empty lists.
func (s *Store) Load() ([]string, []Palette, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("could not read palette store %q: %w", s.Path, err)
	}

	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("could not parse palette store %q: %w", s.Path, err)
	}
	if len(doc.Names) != len(doc.Palettes) {
		return nil, nil, fmt.Errorf("palette store %q is inconsistent: %d names, %d palettes",
			s.Path, len(doc.Names), len(doc.Palettes))
	}

	return doc.Names, doc.Palettes, nil
}

// Append adds a named palette to the store. Empty palettes and
// duplicate names are rejected without touching the file; the write
// itself goes through a temp file and rename so a failure never
// corrupts previously saved palettes.
func (s *Store) Append(name string, pal Palette) error {
	if len(pal) == 0 {
		return fmt.Errorf("refusing to save empty palette %q", name)
	}

	names, pals, err := s.Load()
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return fmt.Errorf("palette %q already saved", name)
	}

	doc := storeDoc{
		Names:    append(names, name),
		Palettes: append(pals, pal),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode palette store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("could not create palette store folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path))
	if err != nil {
		return fmt.Errorf("could not create temporary store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write palette store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not flush palette store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close palette store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("could not replace palette store: %w", err)
	}

	return nil
}
