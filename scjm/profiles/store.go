// Package profiles stores saved control profiles as .sccontrols files
// in a single directory.
package profiles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/scjoymapper/scjoymapper/scjm/controls"
)

// Extension is the on disk extension for saved profiles.
const Extension = ".sccontrols"

// Store reads and writes profiles under Dir. Profile names are reduced
// to a filename safe form before hitting the filesystem, so a request
// can never escape the directory.
type Store struct {
	Dir string
}

// NewStore creates the directory if needed and returns a store over it
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create profiles directory %s", dir)
	}
	return &Store{Dir: dir}, nil
}

// Save serialises the profile and writes it under its profile name
func (s *Store) Save(file *controls.ControlsFile) error {
	name := SanitizeName(file.ProfileName)
	if name == "" {
		return errors.Errorf("profile name %q has no usable characters", file.ProfileName)
	}
	data, err := controls.SerializeControlsFile(file)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize profile %q", file.ProfileName)
	}
	if err := os.WriteFile(s.path(name), data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write profile %q", name)
	}
	return nil
}

// Load reads and parses the profile saved under name
func (s *Store) Load(name string) (*controls.ControlsFile, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return nil, errors.Errorf("profile name %q has no usable characters", name)
	}
	data, err := os.ReadFile(s.path(clean))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile %q", clean)
	}
	file, err := controls.ParseControlsFile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load profile %q", clean)
	}
	return file, nil
}

// List returns the saved profile names, sorted
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list profiles in %s", s.Dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Extension))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the profile saved under name
func (s *Store) Delete(name string) error {
	clean := SanitizeName(name)
	if clean == "" {
		return errors.Errorf("profile name %q has no usable characters", name)
	}
	if err := os.Remove(s.path(clean)); err != nil {
		return errors.Wrapf(err, "failed to delete profile %q", clean)
	}
	return nil
}

func (s *Store) path(clean string) string {
	return filepath.Join(s.Dir, clean+Extension)
}

// SanitizeName keeps letters, digits, spaces, dashes and underscores
// and drops everything else, including path separators
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// WriteFileWithBackup writes data to path, first moving any existing
// content aside to a timestamped backup next to it. Returns the backup
// path, empty when the target did not exist yet.
func WriteFileWithBackup(path string, data []byte) (string, error) {
	backup := ""
	current, err := os.ReadFile(path)
	switch {
	case err == nil:
		backup = fmt.Sprintf("%s.backup-%s", path,
			time.Now().Format("20060102-150405"))
		if err := os.WriteFile(backup, current, 0644); err != nil {
			return "", errors.Wrapf(err, "failed to back up %s", path)
		}
	case !os.IsNotExist(err):
		return "", errors.Wrapf(err, "failed to read %s before writing", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return backup, errors.Wrapf(err, "failed to write %s", path)
	}
	return backup, nil
}
