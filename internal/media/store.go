package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrlokans/notebridge/internal/utils"
)

// Store is a content-addressed media directory. A desired name is kept when
// the file is new or already holds the same bytes; different bytes under a
// taken name are stored under a hash-suffixed name instead.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a media store at the specified directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the media directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of a stored file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Has reports whether a file with the given name exists.
func (s *Store) Has(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// AddFile stores data under desired (sanitized) and returns the final name.
func (s *Store) AddFile(data []byte, desired string) (string, error) {
	name := utils.SanitizeMediaName(desired)
	sum := sha256.Sum256(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	stem, ext := utils.SplitMediaName(name)
	candidates := []string{
		name,
		fmt.Sprintf("%s-%x%s", stem, sum[:4], ext),
		fmt.Sprintf("%s-%x%s", stem, sum[:], ext),
	}

	for _, candidate := range candidates {
		existing, err := s.hashOf(candidate)
		if errors.Is(err, os.ErrNotExist) {
			if err := s.write(candidate, data); err != nil {
				return "", err
			}
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if bytes.Equal(existing, sum[:]) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free name for %q", name)
}

// HashFile returns the hex sha256 of a stored file.
func (s *Store) HashFile(name string) (string, error) {
	sum, err := s.hashOf(name)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

func (s *Store) hashOf(name string) ([]byte, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", name, err)
	}
	return h.Sum(nil), nil
}

// write saves data through a temp file in the same directory for an atomic rename.
func (s *Store) write(name string, data []byte) error {
	tmpFile, err := os.CreateTemp(s.dir, ".media_tmp_")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.Path(name))
}
