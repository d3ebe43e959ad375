package engine

import "github.com/roach88/customobjects/internal/ir"

// IndexTable assigns per-kind asset indices in first-seen order.
//
// Indices start at 0 for each kind and are never reused or renumbered.
// A table belongs to exactly one job.
type IndexTable struct {
	tables map[ir.Kind]map[string]int
}

// NewIndexTable creates empty tables for every kind.
func NewIndexTable() *IndexTable {
	t := &IndexTable{tables: make(map[ir.Kind]map[string]int, len(ir.Kinds))}
	for _, k := range ir.Kinds {
		t.tables[k] = make(map[string]int)
	}
	return t
}

// GetOrAssign returns the index of (kind, path), assigning the next free
// index of that kind on first sight.
func (t *IndexTable) GetOrAssign(kind ir.Kind, path string) int {
	table := t.tables[kind]
	if table == nil {
		table = make(map[string]int)
		t.tables[kind] = table
	}
	if idx, ok := table[path]; ok {
		return idx
	}
	idx := len(table)
	table[path] = idx
	return idx
}

// Len returns the number of distinct paths of a kind.
func (t *IndexTable) Len(kind ir.Kind) int {
	return len(t.tables[kind])
}

// Sorted returns the assets of a kind ordered by index.
func (t *IndexTable) Sorted(kind ir.Kind) []ir.AssetRef {
	table := t.tables[kind]
	out := make([]ir.AssetRef, len(table))
	for path, idx := range table {
		out[idx] = ir.AssetRef{Kind: kind, Path: path, Index: idx}
	}
	return out
}
