package pool

import "github.com/Sternrassler/catalog-probe/pkg/catalog"

// ResultsCollection is the append-only set of probe results of a run.
// Only the coordinator's message handler appends to it.
type ResultsCollection struct {
	records []catalog.Result
	exists  int
}

// Append adds results in the order they were reported.
func (c *ResultsCollection) Append(results ...catalog.Result) {
	for _, r := range results {
		if r.Exists {
			c.exists++
		}
	}
	c.records = append(c.records, results...)
}

// Len returns the number of results collected.
func (c *ResultsCollection) Len() int {
	return len(c.records)
}

// Records returns a copy of the collected results.
func (c *ResultsCollection) Records() []catalog.Result {
	out := make([]catalog.Result, len(c.records))
	copy(out, c.records)
	return out
}

// Counts returns the number of existing and missing identifiers.
func (c *ResultsCollection) Counts() (exists, missing int) {
	return c.exists, len(c.records) - c.exists
}
