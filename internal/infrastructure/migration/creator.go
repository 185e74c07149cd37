package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/golang-migrate/migrate/v4/source"
)

var fileHeader = template.Must(template.New("migration").Parse(
	`-- Migration: {{.Name}}{{if eq .Direction "down"}} (Rollback){{end}}
-- Created: {{.Created}}
{{- if and .Description (eq .Direction "up")}}
-- Description: {{.Description}}
{{- end}}

`))

// MigrationFile is a freshly created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// version found in dir, creating dir when needed.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	identifier := sanitizeName(name)
	if identifier == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}

	version := fmt.Sprintf("%06d", nextVersion(existing))
	base := filepath.Join(dir, version+"_"+identifier)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		UpPath:      base + "." + string(source.Up) + ".sql",
		DownPath:    base + "." + string(source.Down) + ".sql",
	}

	created := time.Now().Format(time.RFC3339)
	if err := writeHeader(mf.UpPath, mf, source.Up, created); err != nil {
		return nil, err
	}
	if err := writeHeader(mf.DownPath, mf, source.Down, created); err != nil {
		return nil, errors.Join(err, os.Remove(mf.UpPath))
	}
	return mf, nil
}

func writeHeader(path string, mf *MigrationFile, dir source.Direction, created string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	err = fileHeader.Execute(f, map[string]any{
		"Name":        mf.Name,
		"Description": mf.Description,
		"Direction":   string(dir),
		"Created":     created,
	})
	return errors.Join(err, f.Close())
}

// nextVersion returns one more than the highest version among migration
// base names. Names golang-migrate cannot parse are ignored.
func nextVersion(names []string) uint {
	var highest uint
	for _, name := range names {
		if m, err := source.Parse(name + ".up.sql"); err == nil {
			highest = max(highest, m.Version)
		}
	}
	return highest + 1
}

// sanitizeName lowercases name into an identifier of letters, digits and
// single underscores.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return r
			}
			return -1
		}, w)
	}
	words = slices.DeleteFunc(words, func(w string) bool { return w == "" })
	return strings.Join(words, "_")
}

// ListMigrations returns the base names of the up migrations in dir ordered
// by version. A missing directory yields an empty list.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	return upMigrationNames(entries), nil
}

func upMigrationNames(entries []fs.DirEntry) []string {
	var ups []*source.Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m, err := source.Parse(entry.Name())
		if err == nil && m.Direction == source.Up {
			ups = append(ups, m)
		}
	}
	slices.SortFunc(ups, func(a, b *source.Migration) int { return cmp.Compare(a.Version, b.Version) })

	names := make([]string, len(ups))
	for i, m := range ups {
		names[i] = strings.TrimSuffix(m.Raw, ".up.sql")
	}
	return names
}
