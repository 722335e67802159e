package vm

// A Region is a contiguous, page-aligned span of virtual memory with access
// permissions.
type Region struct {
	Base     uint64
	NumPages uint64
	Perms    Perm

	next *Region
}

// End returns the first address after the region.
func (r *Region) End() uint64 {
	return r.Base + r.NumPages*PageSize
}

// Contains reports whether vAddr falls inside the region.
func (r *Region) Contains(vAddr uint64) bool {
	return vAddr >= r.Base && vAddr < r.End()
}

// FirstPage returns the virtual page number of the region base.
func (r *Region) FirstPage() uint64 {
	return PageNumber(r.Base)
}

// A RegionList is the singly-linked list of regions owned by one address
// space. New regions are pushed to the front, so a scan sees the most recently
// defined region first.
type RegionList struct {
	head *Region
	len  int
}

// Push puts r at the front of the list.
func (l *RegionList) Push(r *Region) {
	r.next = l.head
	l.head = r
	l.len++
}

// Len returns the number of regions in the list.
func (l *RegionList) Len() int {
	return l.len
}

// Each calls fn for every region in list order. The callback may modify the
// region's permissions but must not change the list.
func (l *RegionList) Each(fn func(r *Region)) {
	for r := l.head; r != nil; r = r.next {
		fn(r)
	}
}

// Find returns the first region that contains vAddr.
func (l *RegionList) Find(vAddr uint64) (*Region, bool) {
	for r := l.head; r != nil; r = r.next {
		if r.Contains(vAddr) {
			return r, true
		}
	}

	return nil, false
}

// Snapshot returns copies of all the regions in list order.
func (l *RegionList) Snapshot() []Region {
	regions := make([]Region, 0, l.len)
	for r := l.head; r != nil; r = r.next {
		c := *r
		c.next = nil
		regions = append(regions, c)
	}

	return regions
}

// Clear unlinks every region, calling release for each one.
func (l *RegionList) Clear(release func(r *Region)) {
	r := l.head
	for r != nil {
		next := r.next
		r.next = nil

		if release != nil {
			release(r)
		}

		r = next
	}

	l.head = nil
	l.len = 0
}
