package analyzer

// Entry is one row of a frequency table.
type Entry[K comparable] struct {
	Key   K
	Count int
}

// Counter is a frequency table that remembers the order in which keys were
// first seen. That order breaks ties when the table is ranked.
type Counter[K comparable] struct {
	index map[K]int
	rows  []Entry[K]
}

// NewCounter creates an empty counter.
func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{index: make(map[K]int)}
}

// Add increments the count of key by one.
func (c *Counter[K]) Add(key K) {
	c.AddN(key, 1)
}

// AddN increments the count of key by n.
func (c *Counter[K]) AddN(key K, n int) {
	if i, ok := c.index[key]; ok {
		c.rows[i].Count += n
		return
	}
	c.index[key] = len(c.rows)
	c.rows = append(c.rows, Entry[K]{Key: key, Count: n})
}

// Count returns the count of key, 0 if never seen.
func (c *Counter[K]) Count(key K) int {
	if i, ok := c.index[key]; ok {
		return c.rows[i].Count
	}
	return 0
}

// Len returns the number of distinct keys.
func (c *Counter[K]) Len() int {
	return len(c.rows)
}

// Entries returns a copy of the rows in first-appearance order.
func (c *Counter[K]) Entries() []Entry[K] {
	out := make([]Entry[K], len(c.rows))
	copy(out, c.rows)
	return out
}

// Merge folds other into c. Keys new to c are appended in other's order, so
// merging counters built over consecutive chunks of input keeps the
// first-appearance order of the whole input.
func (c *Counter[K]) Merge(other *Counter[K]) {
	for _, e := range other.rows {
		c.AddN(e.Key, e.Count)
	}
}
