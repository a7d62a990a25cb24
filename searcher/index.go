package searcher

// index maps canonical state keys to nodes and back. A node is part of the
// tree iff it is in the index.
type index struct {
	byKey  map[string]Handle
	byNode map[Handle]string
}

func newIndex() *index {
	return &index{
		byKey:  map[string]Handle{},
		byNode: map[Handle]string{},
	}
}

func (x *index) lookup(key string) (Handle, bool) {
	h, ok := x.byKey[key]
	return h, ok
}

func (x *index) contains(h Handle) bool {
	_, ok := x.byNode[h]
	return ok
}

func (x *index) insert(key string, h Handle) error {
	if other, ok := x.byKey[key]; ok {
		return fault("index insert", h, "state %q already held by node %d", key, other)
	}
	if other, ok := x.byNode[h]; ok {
		return fault("index insert", h, "node already indexed as %q", other)
	}
	x.byKey[key] = h
	x.byNode[h] = key
	return nil
}

func (x *index) remove(h Handle) error {
	key, ok := x.byNode[h]
	if !ok {
		return fault("index remove", h, "node not indexed")
	}
	delete(x.byNode, h)
	delete(x.byKey, key)
	return nil
}

func (x *index) size() int {
	return len(x.byKey)
}

func (x *index) reset() {
	clear(x.byKey)
	clear(x.byNode)
}
