// Package source loads domain snapshots from files and watches them for
// changes.
//
// Snapshots are decoded from YAML, JSON or TOML depending on the file
// extension. Every successful load yields a new pointer, which is what a
// controller keys its snapshot versions on.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/pipegraph/errors"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Extensions lists the file extensions searched by FileLoader, in order.
var Extensions = []string{".yaml", ".yml", ".json", ".toml"}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// Decode decodes data in the given format into a new T.
func Decode[T any](data []byte, f Format) (*T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	v := new(T)
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatJSON:
		err = json.Unmarshal(data, v)
	case FormatTOML:
		err = toml.Unmarshal(data, v)
	default:
		err = fmt.Errorf("unsupported format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadFile reads and decodes one snapshot file.
func LoadFile[T any](path string) (*T, error) {
	f, ok := FormatOf(path)
	if !ok {
		return nil, errors.InvalidInput("path", fmt.Sprintf("unsupported file extension %q", filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("snapshot", path)
		}
		return nil, errors.DecodeFailed(path, err)
	}
	v, err := Decode[T](data, f)
	if err != nil {
		return nil, errors.DecodeFailed(path, err)
	}
	return v, nil
}

// Loader loads snapshots by name.
type Loader[T any] interface {
	Load(name string) (*T, error)
}

// FileLoader loads snapshots from files on disk.
type FileLoader[T any] struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories.
func NewFileLoader[T any](dirs ...string) *FileLoader[T] {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return &FileLoader[T]{dirs: dirs}
}

// Load searches for {name}.yaml, .yml, .json and .toml in each directory.
// A name that already carries a supported extension is loaded as a path.
func (l *FileLoader[T]) Load(name string) (*T, error) {
	if _, ok := FormatOf(name); ok {
		if _, err := os.Stat(name); err == nil {
			return LoadFile[T](name)
		}
	}
	for _, dir := range l.dirs {
		for _, ext := range Extensions {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return LoadFile[T](path)
		}
	}
	return nil, errors.NotFound("snapshot", name).WithDetail("dirs", l.dirs)
}
