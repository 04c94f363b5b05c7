package history

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/maruel/storefront/internal/storage"
)

func messages(commits []Commit) []string {
	var out []string
	for _, c := range commits {
		out = append(out, c.Message)
	}
	return out
}

func TestRepo(t *testing.T) {
	dir := t.TempDir()
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := t.Context()
	products := filepath.Join(dir, "products.json")

	log, err := repo.Log(ctx, products, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Errorf("Log() on empty repo = %v", log)
	}

	col, err := storage.Open(&storage.Options{
		Name:      "products",
		Path:      products,
		Observers: []storage.Observer{repo},
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := col.Add(ctx, storage.Record{"name": "Ring"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := col.Update(ctx, r.ID(), storage.Record{"name": "Gold Ring"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := col.Remove(ctx, r.ID()); err != nil {
		t.Fatal(err)
	}

	log, err = repo.Log(ctx, products, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"products: remove 1", "products: update 1", "products: add 1"}
	if got := messages(log); !slices.Equal(got, want) {
		t.Errorf("Log() = %v, want %v", got, want)
	}
	for _, c := range log {
		if len(c.Hash) != 40 || c.When.IsZero() {
			t.Errorf("commit = %+v", c)
		}
	}

	log, err = repo.Log(ctx, products, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 {
		t.Errorf("Log(limit 1) = %v", log)
	}

	// Files other than the collection are never committed.
	if err := os.WriteFile(filepath.Join(dir, "server_config.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := repo.Commit(products, "noop"); err != nil {
		t.Fatal(err)
	}
	log, err = repo.Log(ctx, products, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 3 {
		t.Errorf("unchanged file committed: %v", messages(log))
	}

	// Reopening keeps the history.
	again, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	log, err = again.Log(ctx, products, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 3 {
		t.Errorf("Log() after reopen = %v", messages(log))
	}
}

func TestRepoOutside(t *testing.T) {
	repo, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Commit(filepath.Join(t.TempDir(), "x.json"), "x"); err == nil {
		t.Error("expected error")
	}
}
