package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/maruel/ksid"
	"github.com/maruel/storefront/internal/jsonldb"
)

// IDPolicy assigns ids to new records. NextID runs under the collection lock
// with the current rows.
type IDPolicy interface {
	NextID(rows []Record) (any, error)
}

// IntegerIDs assigns increasing integers starting at 1.
//
// The highest id ever issued is persisted in a counter file next to the
// collection, so deleting the newest record never frees its id for reuse.
type IntegerIDs struct {
	path string
}

// NewIntegerIDs returns a policy persisting its counter at path.
func NewIntegerIDs(path string) *IntegerIDs {
	return &IntegerIDs{path: path}
}

// NextID implements IDPolicy.
func (p *IntegerIDs) NextID(rows []Record) (any, error) {
	high, err := p.load()
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if n, err := strconv.ParseInt(r.ID(), 10, 64); err == nil && n > high {
			high = n
		}
	}
	next := high + 1
	if err := jsonldb.WriteFileAtomic(p.path, []byte(strconv.FormatInt(next, 10)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to persist id counter: %w", err)
	}
	return next, nil
}

func (p *IntegerIDs) load() (int64, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupted id counter %s: %w", p.path, err)
	}
	return n, nil
}

// TokenIDs assigns random time-sortable string ids.
type TokenIDs struct{}

// NextID implements IDPolicy.
func (TokenIDs) NextID(rows []Record) (any, error) {
	for {
		id := ksid.NewID().String()
		if indexOf(rows, id) < 0 {
			return id, nil
		}
	}
}
