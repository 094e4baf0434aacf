package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/funvibe/yjs/internal/modules"
)

func TestUnitName(t *testing.T) {
	root := t.TempDir()
	w := &Watcher{roots: []string{root}}
	tests := map[string]string{
		filepath.Join(root, "main.yjs.yaml"):        "main",
		filepath.Join(root, "lib", "Text.yjs.json"): "lib.text",
		filepath.Join("/elsewhere", "x.yjs.cbor"):   "x",
	}
	for path, want := range tests {
		if got := w.unitName(path); got != want {
			t.Errorf("unitName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	cache := modules.NewCache()
	cache.Put(&modules.Entry{Name: "leaf", Var: "_$m_leaf"})
	cache.Put(&modules.Entry{Name: "main", Var: "_$m_main", Deps: []string{"leaf"}})
	cache.Put(&modules.Entry{Name: "other", Var: "_$m_other"})

	changed := make(chan []string, 1)
	w, err := New(cache, []string{dir}, func(_ context.Context, units []string) {
		select {
		case changed <- units:
		default:
		}
	})
	if err != nil {
		t.Skip("fsnotify not supported: ", err)
	}
	defer w.Close()
	w.Delay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "leaf.yjs.yaml"), []byte("unit: leaf\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case units := <-changed:
		if len(units) != 1 || units[0] != "leaf" {
			t.Errorf("units = %v", units)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for change")
	}
	if _, ok := cache.Lookup("main"); ok {
		t.Error("dependent module kept")
	}
	if _, ok := cache.Lookup("other"); !ok {
		t.Error("unrelated module dropped")
	}
}
