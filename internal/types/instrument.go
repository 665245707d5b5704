package types

// ListingStatus describes whether an instrument currently trades.
type ListingStatus string

const (
	ListingStatusListed    ListingStatus = "listed"
	ListingStatusSuspended ListingStatus = "suspended"
	ListingStatusDelisted  ListingStatus = "delisted"
)

// Instrument is a single tradable security identified by a stable code.
type Instrument struct {
	Code   string        `json:"code" yaml:"code" validate:"required"`
	Name   string        `json:"name" yaml:"name"`
	Status ListingStatus `json:"status" yaml:"status"`
}

// Tradable reports whether the instrument should be fetched and
// evaluated. Suspended and delisted instruments are excluded from the
// run at universe level.
func (i Instrument) Tradable() bool {
	return i.Status == "" || i.Status == ListingStatusListed
}
