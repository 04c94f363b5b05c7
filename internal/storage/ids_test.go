package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestIntegerIDs(t *testing.T) {
	t.Run("starts at one", func(t *testing.T) {
		p := NewIntegerIDs(filepath.Join(t.TempDir(), "x.seq"))
		id, err := p.NextID(nil)
		if err != nil {
			t.Fatal(err)
		}
		if id != int64(1) {
			t.Errorf("NextID() = %v, want 1", id)
		}
	})

	t.Run("counter survives deletion", func(t *testing.T) {
		seq := filepath.Join(t.TempDir(), "x.seq")
		p := NewIntegerIDs(seq)
		rows := []Record{{"id": json.Number("4")}, {"id": "abc"}}
		id, err := p.NextID(rows)
		if err != nil {
			t.Fatal(err)
		}
		if id != int64(5) {
			t.Errorf("NextID() = %v, want 5", id)
		}
		// A fresh policy reads the persisted counter.
		id, err = NewIntegerIDs(seq).NextID(nil)
		if err != nil {
			t.Fatal(err)
		}
		if id != int64(6) {
			t.Errorf("NextID() = %v, want 6", id)
		}
	})

	t.Run("corrupted counter", func(t *testing.T) {
		seq := filepath.Join(t.TempDir(), "x.seq")
		if err := os.WriteFile(seq, []byte("nope"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewIntegerIDs(seq).NextID(nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestTokenIDs(t *testing.T) {
	seen := map[any]bool{}
	for range 100 {
		id, err := TokenIDs{}.NextID(nil)
		if err != nil {
			t.Fatal(err)
		}
		s, ok := id.(string)
		if !ok || s == "" || seen[id] {
			t.Fatalf("NextID() = %#v", id)
		}
		seen[id] = true
	}
}
