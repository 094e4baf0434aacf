// Package config holds compiler constants and the project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

// Project is the content of a yjs.yaml or yjs.toml file.
type Project struct {
	// SourcePath lists the directories searched for units, relative to the
	// project file.
	SourcePath []string `yaml:"source_path" toml:"source_path"`

	// OutDir receives the written target files.
	OutDir string `yaml:"out_dir,omitempty" toml:"out_dir"`

	// Preload names modules whose fields are visible in every unit.
	Preload []string `yaml:"preload,omitempty" toml:"preload"`

	// CacheDir stores lowered modules between runs. Empty disables the disk
	// cache; "default" selects DefaultCacheDir.
	CacheDir string `yaml:"cache_dir,omitempty" toml:"cache_dir"`

	// CacheDB stores lowered modules in a SQLite database instead, for
	// caches shared between processes. It takes precedence over CacheDir.
	CacheDB string `yaml:"cache_db,omitempty" toml:"cache_db"`

	Server Server `yaml:"server,omitempty" toml:"server"`
	Log    Log    `yaml:"log,omitempty" toml:"log"`

	// Dir is the directory of the project file.
	Dir string `yaml:"-" toml:"-"`
}

// Server configures the compile service.
type Server struct {
	GRPCAddr string `yaml:"grpc_addr,omitempty" toml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr,omitempty" toml:"http_addr"`
}

// Log configures logging.
type Log struct {
	// Verbosity is passed to commonlog.Configure: 0 logs errors, each level
	// above adds detail.
	Verbosity int `yaml:"verbosity,omitempty" toml:"verbosity"`
}

// Default returns the project used when no file is found.
func Default(dir string) *Project {
	p := &Project{Dir: dir}
	p.setDefaults()
	return p
}

// LoadProject reads and parses a project file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses project file content. The format is chosen by the
// extension of path.
func ParseProject(data []byte, path string) (*Project, error) {
	var p Project
	if strings.HasSuffix(path, ".toml") {
		if _, err := toml.Decode(string(data), &p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.Dir = filepath.Dir(path)
	p.setDefaults()
	return &p, nil
}

// FindProject searches for a project file starting from dir and walking up
// to parent directories. It returns "" when there is none.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ProjectFiles {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (p *Project) validate(path string) error {
	seen := map[string]bool{}
	for i, m := range p.Preload {
		if m == "" {
			return fmt.Errorf("%s: preload[%d]: module name is required", path, i)
		}
		key := strings.ToLower(m)
		if seen[key] {
			return fmt.Errorf("%s: preload[%d]: duplicate module %q", path, i, m)
		}
		seen[key] = true
	}
	for i, sp := range p.SourcePath {
		if sp == "" {
			return fmt.Errorf("%s: source_path[%d]: empty directory", path, i)
		}
	}
	if p.Log.Verbosity < 0 {
		return fmt.Errorf("%s: log.verbosity must not be negative", path)
	}
	return nil
}

func (p *Project) setDefaults() {
	if len(p.SourcePath) == 0 {
		p.SourcePath = []string{"."}
	}
	if p.CacheDir == "default" {
		p.CacheDir = DefaultCacheDir
	}
}

// Resolve returns path relative to the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// SourceDirs returns the source path resolved against the project
// directory.
func (p *Project) SourceDirs() []string {
	dirs := make([]string, len(p.SourcePath))
	for i, sp := range p.SourcePath {
		dirs[i] = p.Resolve(sp)
	}
	return dirs
}

// ConfigureLogging applies the log section, raised to at least verbosity.
func (p *Project) ConfigureLogging(verbosity int) {
	if p.Log.Verbosity > verbosity {
		verbosity = p.Log.Verbosity
	}
	commonlog.Configure(verbosity, nil)
}
