package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/panyam/ros/decl"
	"github.com/panyam/ros/parser"
	"github.com/panyam/ros/runtime"
)

// Loader reads scripts and library modules from a FileSystem.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a loader over fs.  A nil fs means the local disk
// relative to the working directory.
func NewLoader(fs FileSystem) *Loader {
	if fs == nil {
		fs = NewLocalFS("")
	}
	return &Loader{fs: fs}
}

func (l *Loader) FS() FileSystem {
	return l.fs
}

// ReadSource returns the contents of a script.
func (l *Loader) ReadSource(path string) (string, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read '%s': %w", path, err)
	}
	return string(data), nil
}

// ParseFile reads and parses a script.  Parse errors are wrapped with the
// path but still match decl.ErrParse / decl.ErrLex.
func (l *Loader) ParseFile(path string) (*decl.Program, error) {
	source, err := l.ReadSource(path)
	if err != nil {
		return nil, err
	}
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("in '%s': %w", path, err)
	}
	return prog, nil
}

// LoadImportables walks each dir recursively and builds the module map
// handed to runtime.BasicEnvironment.  Every file is registered under its
// file name (`util.ros`) and under the name without its extension (`util`)
// so `import "util"` works.  When two files share a key the first one
// found, in directory order then lexical path order, keeps it.
func (l *Loader) LoadImportables(dirs ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, dir := range dirs {
		files, err := l.fs.ListFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("cannot list libs in '%s': %w", dir, err)
		}
		for _, path := range files {
			source, err := l.ReadSource(path)
			if err != nil {
				return nil, err
			}
			name := filepath.Base(path)
			for _, key := range moduleKeys(name) {
				if _, taken := out[key]; taken {
					runtime.Warn("module %s from %s shadowed by an earlier file", key, path)
					continue
				}
				out[key] = source
			}
			runtime.Debug("loaded module %s from %s", name, path)
		}
	}
	return out, nil
}

func moduleKeys(name string) []string {
	if base := strings.TrimSuffix(name, filepath.Ext(name)); base != "" && base != name {
		return []string{name, base}
	}
	return []string{name}
}

// ValidationResult is the outcome of parsing one file.
type ValidationResult struct {
	Path string
	Err  error
}

func (v ValidationResult) OK() bool { return v.Err == nil }

// ValidateFiles lexes and parses every path without running anything.
// success is false if any file failed.
func (l *Loader) ValidateFiles(paths ...string) (results []ValidationResult, success bool) {
	success = true
	for _, path := range paths {
		_, err := l.ParseFile(path)
		if err != nil {
			success = false
			runtime.Debug("validation failed for %s: %v", path, err)
		}
		results = append(results, ValidationResult{Path: path, Err: err})
	}
	return
}
