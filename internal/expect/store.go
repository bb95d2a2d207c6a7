package expect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trackcheck/pkg/errors"
)

// Store reads module templates from a directory tree laid out as
// {dir}/{AREA}/{sanitized module title}.json.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// SanitizeTitle turns a human module title into its template file stem.
// Spaces become underscores, apostrophes vanish, filesystem-hostile
// characters become underscores. An empty result maps to "unknown" so
// every module has a deterministic file name.
func SanitizeTitle(title string) string {
	sanitized := strings.TrimSpace(title)
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "'", "")
	sanitized = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, sanitized)

	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}

// Path returns the template file path for a module without touching disk.
func (s *Store) Path(area, moduleTitle string) string {
	return filepath.Join(s.dir, area, SanitizeTitle(moduleTitle)+".json")
}

// Load reads and parses a module template.
func (s *Store) Load(area, moduleTitle string) (*Template, error) {
	path := s.Path(area, moduleTitle)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrConfigNotFound.
				WithDetail("area", area).
				WithDetail("module", moduleTitle).
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	template, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}
	template.Area = area
	template.Title = moduleTitle
	return template, nil
}

// Areas lists the area subdirectories, sorted.
func (s *Store) Areas() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	var areas []string
	for _, entry := range entries {
		if entry.IsDir() {
			areas = append(areas, entry.Name())
		}
	}
	sort.Strings(areas)
	return areas, nil
}

// Templates lists template file stems within one area, sorted.
func (s *Store) Templates(area string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, area))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// ReadRaw returns the raw bytes of one template file by stem.
func (s *Store) ReadRaw(area, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, area, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrConfigNotFound.
				WithDetail("area", area).
				WithDetail("module", name)
		}
		return nil, errors.Wrap(err, errors.ErrInternal)
	}
	return data, nil
}

// WriteRaw writes one template file by stem, creating the area directory
// as needed. Used by the workbook import.
func (s *Store) WriteRaw(area, name string, data []byte) error {
	dir := filepath.Join(s.dir, area)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrInternal)
	}
	return nil
}
