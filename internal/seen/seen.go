// Package seen derives listing identities and tracks which of them have
// already been emitted.
package seen

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// ID builds the dedup key for a listing from its category, the raw epoch
// attribute and the price-stripped title.
//
// Two listings in the same category posted in the same second with the
// same title collapse into one identity.
func ID(category, epoch, title string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(title))
	return fmt.Sprintf("%s_%s_%016x", category, epoch, h.Sum64())
}

// Set is the append-only set of listing identities seen so far.
type Set map[string]bool

func New() Set {
	return make(Set)
}

func (s Set) IsNew(id string) bool {
	return !s[id]
}

// MarkSeen adds id to the set. Adding an existing id is a no-op.
func (s Set) MarkSeen(id string) {
	s[id] = true
}

func (s Set) Len() int {
	return len(s)
}

// IDs returns the identities in sorted order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id, ok := range s {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
