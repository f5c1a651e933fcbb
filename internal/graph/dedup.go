package graph

// Deduplicator remembers which reference identities have been recorded for
// each declared type. It is owned by a single traversal and is not safe for
// concurrent use.
type Deduplicator struct {
	sets map[NodeID]map[string]struct{}
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{sets: make(map[NodeID]map[string]struct{})}
}

// Record reports whether identity is new for owner and remembers it.
func (d *Deduplicator) Record(owner NodeID, identity string) bool {
	set := d.sets[owner]
	if set == nil {
		set = make(map[string]struct{})
		d.sets[owner] = set
	}
	if _, dup := set[identity]; dup {
		return false
	}
	set[identity] = struct{}{}
	return true
}
