package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// FileSystem abstracts where module sources and scripts live so the same
// loading code works against the local disk and in-memory trees (tests,
// embedding hosts).
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	// ListFiles returns every regular file under dir, recursively, in
	// lexical order.  Paths are relative to the file system root.
	ListFiles(dir string) ([]string, error)
	Exists(path string) bool
}

// LocalFS implements FileSystem using the local disk
type LocalFS struct {
	basePath string
}

func NewLocalFS(basePath string) *LocalFS {
	return &LocalFS{basePath: basePath}
}

func (l *LocalFS) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.basePath, path)
}

func (l *LocalFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(l.resolvePath(path))
}

func (l *LocalFS) WriteFile(path string, data []byte) error {
	fullPath := l.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0644)
}

func (l *LocalFS) ListFiles(dir string) (files []string, err error) {
	root := l.resolvePath(dir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.Join(dir, rel))
		}
		return nil
	})
	slices.Sort(files)
	return
}

func (l *LocalFS) Exists(path string) bool {
	_, err := os.Stat(l.resolvePath(path))
	return err == nil
}

// MemoryFS implements an in-memory file system.  Paths use forward slashes.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string][]byte),
	}
}

func (m *MemoryFS) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.files[cleanPath(path)]
	if !exists {
		return nil, fmt.Errorf("file not found: %s: %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil // Return a copy
}

func (m *MemoryFS) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[cleanPath(path)] = append([]byte(nil), data...) // Store a copy
	return nil
}

func (m *MemoryFS) ListFiles(dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := cleanPath(dir) + "/"
	if prefix == "./" {
		prefix = ""
	}
	var files []string
	for path := range m.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, path)
		}
	}
	if len(files) == 0 && prefix != "" {
		return nil, fmt.Errorf("directory not found: %s: %w", dir, fs.ErrNotExist)
	}
	slices.Sort(files)
	return files, nil
}

func (m *MemoryFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.files[cleanPath(path)]
	return exists
}

// PreloadFiles adds files to the memory filesystem
func (m *MemoryFS) PreloadFiles(files map[string]string) *MemoryFS {
	m.mu.Lock()
	defer m.mu.Unlock()

	for path, content := range files {
		m.files[cleanPath(path)] = []byte(content)
	}
	return m
}

func cleanPath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "/")
}
