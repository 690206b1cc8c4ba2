package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ecogroup/ecgsite/orm"
)

type model[M any] interface {
	*M
	orm.Identifiable[string]
}

// table is one JSON file holding an ordered collection.
// Items leave and enter the table as copies.
type table[M any, MP model[M]] struct {
	file string
	rows *orm.Collection[MP, string]
}

func newTable[M any, MP model[M]](dir, name string) *table[M, MP] {
	return &table[M, MP]{
		file: filepath.Join(dir, name+".json"),
		rows: orm.NewEmptyOrderedCollection[MP, string](),
	}
}

func (t *table[M, MP]) load() error {
	data, err := os.ReadFile(t.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var items []MP
	if err = json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%s: %w", t.file, err)
	}
	t.rows = orm.NewOrderedCollection[MP, string](items)
	return nil
}

func (t *table[M, MP]) save(rows *orm.Collection[MP, string]) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(t.file), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), t.file)
}

// commit applies change to a copy of the rows; the copy replaces them only once the file is written
func (t *table[M, MP]) commit(change func(rows *orm.Collection[MP, string])) error {
	next := orm.NewOrderedCollection[MP, string](t.rows.Items())
	change(next)
	if err := t.save(next); err != nil {
		return err
	}
	t.rows = next
	return nil
}

func clone[M any, MP model[M]](p MP) MP {
	c := *p
	return MP(&c)
}

func (t *table[M, MP]) get(id string) (MP, bool) {
	p, ok := t.rows.Find(id)
	if !ok {
		var zero MP
		return zero, false
	}
	return clone[M, MP](p), true
}

func (t *table[M, MP]) put(items ...MP) error {
	return t.commit(func(rows *orm.Collection[MP, string]) {
		for _, item := range items {
			rows.Add(clone[M, MP](item))
		}
	})
}

// remove reports whether id was present
func (t *table[M, MP]) remove(id string) (bool, error) {
	if _, ok := t.rows.Find(id); !ok {
		return false, nil
	}
	return true, t.commit(func(rows *orm.Collection[MP, string]) {
		rows.Remove(id)
	})
}

func (t *table[M, MP]) len() int {
	return t.rows.Len()
}

// list copies the matching items, sorts them stably with less and applies limit
func (t *table[M, MP]) list(keep func(MP) bool, less func(a, b MP) bool, limit int) []MP {
	out := orm.CollectToSlice(t.rows, func(p MP) *MP {
		if keep != nil && !keep(p) {
			return nil
		}
		c := clone[M, MP](p)
		return &c
	})
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countWhere[M any, MP model[M]](t *table[M, MP], keep func(MP) bool) int64 {
	var n int64
	t.rows.ForEach(func(p MP) {
		if keep(p) {
			n++
		}
	})
	return n
}
