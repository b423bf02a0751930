package refmodel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/kmerdiff/internal/model"
)

// NotFoundError reports a reference identity missing from the store.
type NotFoundError struct {
	Identity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reference model %q not loaded", e.Identity)
}

// Store indexes reference models by identity. It is not modified after
// construction.
type Store struct {
	models map[string]model.ReferenceModel
}

// New builds a store from already parsed models.
func New(models ...model.ReferenceModel) (*Store, error) {
	s := &Store{models: make(map[string]model.ReferenceModel, len(models))}
	for _, m := range models {
		if err := s.add(m, ""); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads every model listed in the given file-of-filenames lists.
func Load(log *zap.Logger, fofns ...string) (*Store, error) {
	s := &Store{models: map[string]model.ReferenceModel{}}
	for _, fofn := range fofns {
		paths, err := readFofn(fofn)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fofn, err)
		}
		for _, path := range paths {
			m, err := ParseFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load reference model: %w", err)
			}
			if err := s.add(m, path); err != nil {
				return nil, err
			}
			log.Debug("loaded reference model",
				zap.String("identity", m.Identity()),
				zap.String("path", path),
				zap.Int("kmers", m.NumKmers()))
		}
	}
	return s, nil
}

func (s *Store) add(m model.ReferenceModel, path string) error {
	id := m.Identity()
	if _, dup := s.models[id]; dup {
		if path != "" {
			return fmt.Errorf("duplicate reference model %q in %s", id, path)
		}
		return fmt.Errorf("duplicate reference model %q", id)
	}
	s.models[id] = m
	return nil
}

// Lookup returns the model with the given identity.
func (s *Store) Lookup(identity string) (model.ReferenceModel, error) {
	m, ok := s.models[identity]
	if !ok {
		return model.ReferenceModel{}, &NotFoundError{Identity: identity}
	}
	return m, nil
}

// Identities lists the loaded identities in sorted order.
func (s *Store) Identities() []string {
	ids := make([]string, 0, len(s.models))
	for id := range s.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded models.
func (s *Store) Len() int {
	return len(s.models)
}

// readFofn returns the paths listed one per line. Relative paths are taken
// relative to the fofn's directory.
func readFofn(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only fofn.
			_ = cerr
		}
	}()

	dir := filepath.Dir(path)
	var paths []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
