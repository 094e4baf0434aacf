package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseProject(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want Project
	}{
		{
			name: "yaml",
			path: "/p/yjs.yaml",
			data: "source_path: [src, lib]\nout_dir: out\npreload: [std]\ncache_dir: default\nserver:\n  grpc_addr: \":7070\"\nlog:\n  verbosity: 2\n",
			want: Project{
				SourcePath: []string{"src", "lib"},
				OutDir:     "out",
				Preload:    []string{"std"},
				CacheDir:   DefaultCacheDir,
				Server:     Server{GRPCAddr: ":7070"},
				Log:        Log{Verbosity: 2},
				Dir:        "/p",
			},
		},
		{
			name: "toml",
			path: "/p/yjs.toml",
			data: "source_path = [\"src\"]\n\n[server]\nhttp_addr = \":8080\"\n",
			want: Project{
				SourcePath: []string{"src"},
				Server:     Server{HTTPAddr: ":8080"},
				Dir:        "/p",
			},
		},
		{
			name: "defaults",
			path: "/p/yjs.yaml",
			data: "out_dir: js\n",
			want: Project{SourcePath: []string{"."}, OutDir: "js", Dir: "/p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProject([]byte(tt.data), tt.path)
			if err != nil {
				t.Fatalf("ParseProject: %v", err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseProjectErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"duplicate preload", "preload: [std, STD]\n", "duplicate module"},
		{"empty preload", "preload: [\"\"]\n", "module name is required"},
		{"empty source dir", "source_path: [\"\"]\n", "empty directory"},
		{"negative verbosity", "log: {verbosity: -1}\n", "must not be negative"},
		{"bad yaml", "source_path: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProject([]byte(tt.data), "yjs.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestFindProject(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProject(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		// A project file above the temp dir would be found; only check it
		// is not inside the tree.
		if strings.HasPrefix(got, root) {
			t.Fatalf("unexpected project %s", got)
		}
	}

	path := filepath.Join(root, "a", "yjs.toml")
	if err := os.WriteFile(path, []byte("out_dir = \"js\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = FindProject(nested)
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Errorf("FindProject = %q, want %q", got, path)
	}

	p, err := LoadProject(got)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "a", "src"); p.Resolve("src") != want {
		t.Errorf("Resolve = %q, want %q", p.Resolve("src"), want)
	}
	if dirs := p.SourceDirs(); len(dirs) != 1 || dirs[0] != filepath.Join(root, "a") {
		t.Errorf("SourceDirs = %v", dirs)
	}
}
