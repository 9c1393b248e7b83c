// Package models defines the core data model shared by all nodes.
package models

// Item is one unit of data flowing through a node invocation: a flat bag
// of strings, numbers, booleans and nested JSON values supplied by the host.
type Item map[string]any

// Clone returns a shallow copy of the item.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}

	return out
}
