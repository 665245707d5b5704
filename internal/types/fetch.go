package types

// FetchOutcome is the per-instrument result of one fetch run: either a
// Bar or a classified failure. Every instrument in the universe yields
// exactly one outcome per run; failures are never silently dropped.
type FetchOutcome struct {
	Instrument Instrument
	Bar        *Bar
	Err        error
	// Attempts is the number of upstream requests made for this
	// instrument, including the successful one.
	Attempts int
}

// OK reports whether the fetch produced a bar.
func (o FetchOutcome) OK() bool {
	return o.Err == nil && o.Bar != nil
}
