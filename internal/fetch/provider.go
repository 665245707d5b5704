// Package fetch retrieves raw daily bars from an upstream market data
// source, with bounded retries, credential/proxy rotation and
// per-instrument failure isolation.
package fetch

import (
	"context"

	"github.com/marketscan-lab/marketscan/internal/config"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// ProviderType identifies an upstream data source implementation.
type ProviderType string

const (
	ProviderEastmoney ProviderType = "eastmoney"
	ProviderPolygon   ProviderType = "polygon"
)

// Provider fetches one instrument's bar for one trading date. Failures
// must be classified through pkg/errors fetch codes so the fetcher's
// retry policy can act on them. Providers perform network I/O only;
// they never persist.
type Provider interface {
	// Name returns the provider's registry name.
	Name() string
	// FetchDaily retrieves the bar for the instrument and date using the
	// given credential. The context bounds the request.
	FetchDaily(ctx context.Context, cred *Credential, inst types.Instrument, date types.TradingDate) (types.Bar, error)
}

// NewProvider creates a provider from configuration.
func NewProvider(cfg config.ProviderConfig) (Provider, error) {
	switch ProviderType(cfg.Name) {
	case ProviderEastmoney:
		return NewEastmoneyProvider(cfg.BaseURL, cfg.Timeout), nil
	case ProviderPolygon:
		return NewPolygonProvider(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider %q", cfg.Name)
	}
}
