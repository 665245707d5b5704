package fetch

import (
	"context"
	"net/http"
	"sync"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// PolygonProvider fetches daily aggregates from the Polygon REST API.
// The API key comes from the pool credential, so multiple keys rotate
// exactly like cookies do for the HTTP provider.
type PolygonProvider struct {
	mu      sync.Mutex
	clients map[string]*polygon.Client
}

// NewPolygonProvider creates the provider.
func NewPolygonProvider() *PolygonProvider {
	return &PolygonProvider{clients: make(map[string]*polygon.Client)}
}

// Name returns the provider's registry name.
func (p *PolygonProvider) Name() string {
	return string(ProviderPolygon)
}

func (p *PolygonProvider) client(cred *Credential) *polygon.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[cred.ID]; ok {
		return c
	}

	c := polygon.New(cred.APIKey)
	p.clients[cred.ID] = c

	return c
}

// FetchDaily retrieves the daily aggregate for one instrument and date.
func (p *PolygonProvider) FetchDaily(ctx context.Context, cred *Credential, inst types.Instrument, date types.TradingDate) (types.Bar, error) {
	if cred.APIKey == "" {
		return types.Bar{}, errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires a credential with api_key")
	}

	day := models.Millis(date.Time())

	params := &models.GetAggsParams{
		Ticker:     inst.Code,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       day,
		To:         day,
	}

	res, err := p.client(cred).GetAggs(ctx, params)
	if err != nil {
		return types.Bar{}, classifyPolygonError(inst.Code, err)
	}

	if len(res.Results) == 0 {
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchNotFound, "no aggregate for %s on %s", inst.Code, date)
	}

	agg := res.Results[0]

	return types.Bar{
		Code:   inst.Code,
		Date:   date,
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}, nil
}

func classifyPolygonError(code string, err error) error {
	var errResp *models.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusTooManyRequests:
			return errors.Wrapf(errors.ErrCodeFetchRateLimited, err, "rate limited fetching %s", code)
		case http.StatusNotFound:
			return errors.Wrapf(errors.ErrCodeFetchNotFound, err, "no data for %s", code)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return errors.Wrapf(errors.ErrCodeFetchMalformedPayload, err, "rejected request for %s", code)
		}
	}

	return errors.Wrapf(errors.ErrCodeFetchTransient, err, "fetch %s", code)
}
