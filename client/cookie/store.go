// Package cookie persists an HTTP cookie session to a file so that
// every call made by a client reads cookies from, and writes cookies
// back to, the same jar.
package cookie

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// TempPattern is the name pattern used for generated cookie files.
const TempPattern = "HTTP_REQUEST_WRAPPER*"

// ErrClosed is returned by every file operation after Close.
var ErrClosed = errors.New("cookie store closed")

// Store owns the cookie file for a single client. The file is created
// lazily on first use and removed by Close.
type Store struct {
	mu     sync.Mutex
	path   string
	owned  []string
	logger *slog.Logger
	closed bool
}

// NewStore returns a Store without a file. Pass a non-empty path to use
// an existing or caller chosen cookie file.
func NewStore(logger *slog.Logger, path string) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the cookie file path, creating a temporary file if the
// store does not have one yet.
func (s *Store) Path() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensurePath()
}

// SetPath replaces the cookie file path. An empty path generates a new
// temporary file. The previous file is left in place.
func (s *Store) SetPath(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	if path == "" {
		generated, err := s.createTemp()
		if err != nil {
			return "", err
		}
		path = generated
	}

	s.path = path

	return s.path, nil
}

// Load opens the cookie file and returns a jar seeded with its cookies.
// A missing file yields an empty jar.
func (s *Store) Load() (*Jar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.ensurePath()
	if err != nil {
		return nil, err
	}

	jar, err := NewJar()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return jar, nil
		}
		return nil, fmt.Errorf("opening cookie file: %w", err)
	}
	defer f.Close()

	entries, err := decode(f)
	if err != nil {
		return nil, err
	}
	jar.load(entries)

	return jar, nil
}

// Save writes the jar's cookies to the cookie file. Data is written to a
// temporary sibling file which then replaces the cookie file.
func (s *Store) Save(jar *Jar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.ensurePath()
	if err != nil {
		return err
	}

	file, err := os.CreateTemp(filepath.Dir(path), ".httprequest-cookies-*")
	if err != nil {
		return fmt.Errorf("creating temp cookie file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.logger.Error("defer closing temp cookie file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				s.logger.Error("failed to remove temp cookie file", "error", err)
			}
		}
	}()

	if err := encode(file, jar.Entries()); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp cookie file: %w", err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("renaming temp cookie file: %w", err)
	}

	successful = true

	return nil
}

// Close removes the current cookie file and every temporary file the
// store generated. Failures are logged and otherwise ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	paths := slices.Clone(s.owned)
	if s.path != "" && !slices.Contains(paths, s.path) {
		paths = append(paths, s.path)
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("failed to remove cookie file", "path", p, "error", err)
		}
	}
}

func (s *Store) ensurePath() (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if s.path != "" {
		return s.path, nil
	}

	path, err := s.createTemp()
	if err != nil {
		return "", err
	}
	s.path = path

	return s.path, nil
}

func (s *Store) createTemp() (string, error) {
	f, err := os.CreateTemp("", TempPattern)
	if err != nil {
		return "", fmt.Errorf("creating cookie file: %w", err)
	}

	if err := f.Close(); err != nil {
		s.logger.Error("closing new cookie file", "error", err)
	}

	s.owned = append(s.owned, f.Name())
	s.logger.Debug("created cookie file", "path", f.Name())

	return f.Name(), nil
}
