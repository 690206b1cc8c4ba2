package orm

import (
	"encoding/json"
	"fmt"
)

type Collection[MP Identifiable[ID], ID comparable] struct {
	itemsMap   map[ID]MP
	orderedIDs []ID // optional (default = nil). only populated if you care about iteration order
}

func NewEmptyOrderedCollection[
	P Identifiable[ID],
	ID comparable,
]() *Collection[P, ID] {
	return &Collection[P, ID]{
		itemsMap:   make(map[ID]P),
		orderedIDs: make([]ID, 0),
	}
}

func NewOrderedCollection[
	P Identifiable[ID],
	ID comparable,
](items []P) *Collection[P, ID] {
	coll := &Collection[P, ID]{
		itemsMap:   make(map[ID]P, len(items)),
		orderedIDs: make([]ID, 0, len(items)),
	}
	for _, item := range items {
		coll.Add(item)
	}
	return coll
}

func (c *Collection[MP, ID]) Len() int {
	return len(c.itemsMap)
}

func (c *Collection[MP, ID]) Find(id ID) (MP, bool) {
	p, ok := c.itemsMap[id]
	return p, ok
}

func (c *Collection[MP, ID]) Add(item MP) {
	id := item.GetID()
	_, already := c.itemsMap[id]
	c.itemsMap[id] = item
	// Preserve order if ordered collection
	if c.orderedIDs != nil && !already {
		c.orderedIDs = append(c.orderedIDs, id)
	}
}

// Remove reports whether id was present
func (c *Collection[MP, ID]) Remove(id ID) bool {
	if _, ok := c.itemsMap[id]; !ok {
		return false
	}
	delete(c.itemsMap, id)
	for i, oid := range c.orderedIDs {
		if oid == id {
			c.orderedIDs = append(c.orderedIDs[:i], c.orderedIDs[i+1:]...)
			break
		}
	}
	return true
}

func (c *Collection[MP, ID]) IDs() []ID {
	if c.orderedIDs != nil {
		return append([]ID(nil), c.orderedIDs...) // preserve original order
	}
	ids := make([]ID, 0, len(c.itemsMap))
	for id := range c.itemsMap {
		ids = append(ids, id)
	}
	return ids
}

func (c *Collection[MP, ID]) Items() []MP {
	items := make([]MP, 0, len(c.itemsMap))
	c.ForEach(func(mp MP) {
		items = append(items, mp)
	})
	return items
}

func (c *Collection[MP, ID]) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Items())
}

// ForEach calls fn for every model in the collection.
// If the collection has an order, it respects that order.
func (c *Collection[MP, ID]) ForEach(fn func(MP)) {
	if c.orderedIDs != nil {
		for _, id := range c.orderedIDs {
			if mp, ok := c.itemsMap[id]; ok {
				fn(mp)
			}
		}
		return
	}
	for _, mp := range c.itemsMap {
		fn(mp)
	}
}

func (c *Collection[MP, ID]) Filter(fn func(MP) bool) *Collection[MP, ID] {
	filtered := &Collection[MP, ID]{itemsMap: make(map[ID]MP, len(c.itemsMap))}
	if c.orderedIDs != nil {
		filtered.orderedIDs = make([]ID, 0, len(c.orderedIDs))
	}
	c.ForEach(func(item MP) {
		if fn(item) {
			filtered.Add(item)
		}
	})
	return filtered
}

// CollectToSlice iterates over the collection and calls yield for each model.
// If yield returns nil, the element is skipped (conditional yield).
// Equivalent to a list comprehension: [yield(m) for m in c if yield(m) != nil].
func CollectToSlice[
	MP Identifiable[ID],
	ID comparable,
	V any,
](
	c *Collection[MP, ID],
	yield func(MP) *V,
) []V {
	sl := make([]V, 0, c.Len()) // new slice
	c.ForEach(func(mp MP) {
		if vp := yield(mp); vp != nil {
			sl = append(sl, *vp)
		}
	})
	return sl
}

// LinkOptionalBelongsTo connects ChildCollection-ParentCollection where Child-BelongsTo-Parent
// ForeignKeyField is on the Child
// RelationField is on the Child
func LinkOptionalBelongsTo[
	CP Identifiable[CID],
	CID comparable,
	PP Identifiable[PID],
	PID comparable,
](
	children *Collection[CP, CID],
	parents *Collection[PP, PID],
	foreignKeyFieldPtr func(CP) *PID, // on the child
	relationFieldPtr func(CP) *PP, // on the child
) {
	for _, child := range children.itemsMap {
		fkPtr := foreignKeyFieldPtr(child)
		if fkPtr == nil {
			continue
		}
		if parent, ok := parents.itemsMap[*fkPtr]; ok {
			*relationFieldPtr(child) = parent
		}
	}
}

// LinkBelongsTo - Strict Version
func LinkBelongsTo[
	CP Identifiable[CID],
	CID comparable,
	PP Identifiable[PID],
	PID comparable,
](
	children *Collection[CP, CID],
	parents *Collection[PP, PID],
	foreignKey func(CP) PID, // on the child
	relationFieldPtr func(CP) *PP, // on the child
) error {
	for _, child := range children.itemsMap {
		fk := foreignKey(child)
		parent, ok := parents.itemsMap[fk]
		if !ok {
			return fmt.Errorf(
				"LinkBelongsTo: parent with ID %v not found for child ID %v",
				fk, child.GetID(),
			)
		}
		*relationFieldPtr(child) = parent
	}
	return nil
}
