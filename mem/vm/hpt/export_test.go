package hpt

// MoveHeadToBucket relinks the head entry of bucket from at the head of
// bucket to, leaving it in a bucket its key does not hash to.
func MoveHeadToBucket(t *Table, from, to int) EntryID {
	id := t.buckets[from]
	t.buckets[from] = t.slab[id].next
	t.slab[id].next = t.buckets[to]
	t.buckets[to] = id

	return id
}
