package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/config"
)

// ErrNotFound is returned by a SourceLoader that has no unit of the
// requested name.
var ErrNotFound = errors.New("not found")

// Source is a decoded unit with the digest of its document.
type Source struct {
	Unit   *ast.Unit
	Digest string
	// Path is where the document was read from, if anywhere.
	Path string
}

// SourceLoader supplies type-checked units. It stands for the front end of
// the compiler.
type SourceLoader interface {
	LoadUnit(name string) (*Source, error)
	ReadScript(name string) (string, error)
}

// DirLoader reads interchange documents and scripts from a list of
// directories.
type DirLoader struct {
	Dirs []string
}

func NewDirLoader(dirs ...string) *DirLoader {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return &DirLoader{Dirs: dirs}
}

// Find returns the document of the named unit. Module names may use dots
// or slashes as separators.
func (l *DirLoader) Find(name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
	for _, dir := range l.Dirs {
		for _, ext := range config.DocumentExtensions {
			for _, candidate := range []string{rel, strings.ToLower(rel)} {
				path := filepath.Join(dir, candidate+ext)
				if _, err := os.Stat(path); err == nil {
					return path, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%s: %w in %s", name, ErrNotFound, strings.Join(l.Dirs, string(filepath.ListSeparator)))
}

// LoadUnit implements SourceLoader.
func (l *DirLoader) LoadUnit(name string) (*Source, error) {
	path, err := l.Find(name)
	if err != nil {
		return nil, err
	}
	return ReadDocument(path)
}

// ReadDocument decodes the document at path.
func ReadDocument(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeSource(data, path)
}

// DecodeSource decodes document content. The format is chosen by the
// extension of path.
func DecodeSource(data []byte, path string) (*Source, error) {
	format := ast.FormatYAML
	if strings.HasSuffix(path, ".cbor") {
		format = ast.FormatCBOR
	}
	unit, err := ast.Decode(data, format, path)
	if err != nil {
		return nil, err
	}
	return &Source{Unit: unit, Digest: Digest(data), Path: path}, nil
}

// Digest returns the hex SHA-256 of a document.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadScript implements SourceLoader. Names without an extension get
// config.ScriptExt.
func (l *DirLoader) ReadScript(name string) (string, error) {
	if filepath.Ext(name) == "" {
		name += config.ScriptExt
	}
	if filepath.IsAbs(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(data), nil
	}
	for _, dir := range l.Dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading script: %w", err)
		}
	}
	return "", fmt.Errorf("script %s: %w", name, ErrNotFound)
}

// IsDocument reports whether path names an interchange document.
func IsDocument(path string) bool {
	for _, ext := range config.DocumentExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// UnitName returns the unit name implied by a document path.
func UnitName(path string) string {
	base := filepath.Base(path)
	for _, ext := range config.DocumentExtensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var deprecatedBefore = semver.MustParse(config.DeprecatedBefore)

// Deprecated reports whether a unit checked by the given compiler version
// predates the current standard library. An empty or unparsable version
// is not deprecated.
func Deprecated(compilerVersion string) bool {
	if compilerVersion == "" {
		return false
	}
	v, err := semver.NewVersion(compilerVersion)
	if err != nil {
		return false
	}
	return v.LessThan(deprecatedBefore)
}
