package state

// DoneList is the set of file URLs already downloaded.
//
// It keeps insertion order for stable serialization alongside an index
// for O(1) membership checks. The list is owned by exactly one
// traversal call at a time and passed down by pointer; nothing accesses
// it concurrently, so there is no locking.
type DoneList struct {
	order []string
	index map[string]struct{}
}

// NewDoneList creates a done-list seeded with the given URLs.
// Duplicates are dropped, keeping the first occurrence.
func NewDoneList(urls ...string) *DoneList {
	d := &DoneList{
		order: make([]string, 0, len(urls)),
		index: make(map[string]struct{}, len(urls)),
	}
	for _, u := range urls {
		d.Add(u)
	}
	return d
}

// Contains reports whether the URL has been downloaded.
func (d *DoneList) Contains(url string) bool {
	_, ok := d.index[url]
	return ok
}

// Add records a URL as downloaded. It reports whether the URL was new.
func (d *DoneList) Add(url string) bool {
	if d.Contains(url) {
		return false
	}
	d.index[url] = struct{}{}
	d.order = append(d.order, url)
	return true
}

// URLs returns the downloaded URLs in insertion order.
// The returned slice is a copy.
func (d *DoneList) URLs() []string {
	urls := make([]string, len(d.order))
	copy(urls, d.order)
	return urls
}

// Len returns the number of downloaded URLs.
func (d *DoneList) Len() int {
	return len(d.order)
}
