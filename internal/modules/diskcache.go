package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/fxamacker/cbor/v2"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/config"
)

// Store keeps lowered modules between runs. Entries are keyed by the
// module name and the digest of its document, and are stamped with the
// compiler version that produced them.
type Store interface {
	// Lookup returns the stored module for the given document digest. The
	// second result maps each dependency to the digest it had when the
	// module was stored; the caller must check them before using the entry.
	Lookup(name, digest string) (*Entry, map[string]string, bool)
	// Store writes e. deps maps each dependency to its current digest.
	Store(e *Entry, deps map[string]string) error
	// Clean removes all stored modules.
	Clean() error
	// Location describes where entries are kept.
	Location() string
}

type diskEntry struct {
	Version         string            `cbor:"1,keyasint"`
	Name            string            `cbor:"2,keyasint"`
	Var             string            `cbor:"3,keyasint"`
	Type            any               `cbor:"4,keyasint,omitempty"`
	Code            string            `cbor:"5,keyasint"`
	Deps            map[string]string `cbor:"6,keyasint,omitempty"`
	CompilerVersion string            `cbor:"7,keyasint,omitempty"`
	Digest          string            `cbor:"8,keyasint"`
}

var diskDecMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: failed to create decode mode: %v", err))
	}
	diskDecMode = dm
}

// entryCodec encodes entries for one compiler version and rejects entries
// of incompatible versions.
type entryCodec struct {
	version    string
	compatible *semver.Constraints
}

func newEntryCodec(version, constraint string) (entryCodec, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return entryCodec{}, fmt.Errorf("module compatibility %q: %w", constraint, err)
	}
	return entryCodec{version: version, compatible: c}, nil
}

func (c entryCodec) encode(e *Entry, deps map[string]string) ([]byte, error) {
	data, err := cbor.Marshal(diskEntry{
		Version:         c.version,
		Name:            e.Name,
		Var:             e.Var,
		Type:            ast.EncodeType(e.Type),
		Code:            e.Code,
		Deps:            deps,
		CompilerVersion: e.CompilerVersion,
		Digest:          e.Digest,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.Name, err)
	}
	return data, nil
}

func (c entryCodec) decode(data []byte, name, digest string) (*Entry, map[string]string, bool) {
	var de diskEntry
	if err := diskDecMode.Unmarshal(data, &de); err != nil {
		log.Warningf("module store: %s: %s", name, err)
		return nil, nil, false
	}
	if !c.usable(de.Version) {
		log.Infof("module store: %s was stored by compiler %s, ignoring", name, de.Version)
		return nil, nil, false
	}
	if de.Digest != digest || Canonical(de.Name) != Canonical(name) {
		return nil, nil, false
	}
	typ, err := ast.DecodeType(de.Type)
	if err != nil {
		log.Warningf("module store: %s: %s", name, err)
		return nil, nil, false
	}
	e := &Entry{
		Name:            de.Name,
		Var:             de.Var,
		Type:            typ,
		Code:            de.Code,
		CompilerVersion: de.CompilerVersion,
		Digest:          de.Digest,
	}
	for dep := range de.Deps {
		e.Deps = append(e.Deps, dep)
	}
	sort.Strings(e.Deps)
	return e, de.Deps, true
}

func (c entryCodec) usable(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.compatible.Check(v)
}

// storeKey identifies an entry independently of the name's case.
func storeKey(name, digest string) string {
	h := sha256.New()
	h.Write([]byte(Canonical(name)))
	h.Write([]byte("\x00"))
	h.Write([]byte(digest))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DiskCache is a Store keeping one CBOR file per entry.
type DiskCache struct {
	dir   string
	codec entryCodec
}

// NewDiskCache opens a cache in dir for the running compiler.
func NewDiskCache(dir string) (*DiskCache, error) {
	return newDiskCache(dir, config.Version, config.ModuleCompatibility)
}

func newDiskCache(dir, version, constraint string) (*DiskCache, error) {
	codec, err := newEntryCodec(version, constraint)
	if err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, codec: codec}, nil
}

func (c *DiskCache) Location() string {
	return c.dir
}

func (c *DiskCache) Lookup(name, digest string) (*Entry, map[string]string, bool) {
	data, err := os.ReadFile(c.path(name, digest))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warningf("disk cache: %s", err)
		}
		return nil, nil, false
	}
	return c.codec.decode(data, name, digest)
}

func (c *DiskCache) Store(e *Entry, deps map[string]string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := c.codec.encode(e, deps)
	if err != nil {
		return err
	}
	path := c.path(e.Name, e.Digest)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return os.Rename(tmp, path)
}

func (c *DiskCache) Clean() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(name, digest string) string {
	return filepath.Join(c.dir, "m-"+storeKey(name, digest)+".cbor")
}
