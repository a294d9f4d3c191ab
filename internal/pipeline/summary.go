package pipeline

// Drop records one discarded raw record for the run ledger and diagnostics.
type Drop struct {
	NaturalKey string
	Missing    []string
}

// Summary holds run-level counters. It is a plain value; the Runner guards
// its accumulation and hands out copies.
type Summary struct {
	Collected      int
	Dropped        int
	Written        int
	DocumentsSaved int
	TextsSaved     int
	FetchFailures  int
	Drops          []Drop
}
