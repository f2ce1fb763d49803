package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

type Storage struct {
	fs afero.Fs
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// New returns a Storage backed by fs, or the OS filesystem when fs is nil.
func New(fs afero.Fs) *Storage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Storage{fs: fs}
}

// Fs exposes the underlying filesystem so fragment lookups share it.
func (s *Storage) Fs() afero.Fs {
	return s.fs
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Storage) HasFile(fn string) bool {
	_, err := s.fs.Stat(fn)
	return err == nil || !os.IsNotExist(err)
}

// GetFileStats returns metadata about a file without reading it.
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := s.fs.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
