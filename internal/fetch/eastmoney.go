package fetch

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

const klinePath = "/api/qt/stock/kline/get"

// klineFields is the upstream field selection: date, open, close, high,
// low, volume, amount, amplitude, change percent, change, turnover.
const klineFields = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"

// EastmoneyProvider fetches daily kline bars over the public quote HTTP
// API. Each credential carries its own cookie and optional proxy; the
// provider keeps one HTTP client per credential so proxies stay pinned
// to their credential.
type EastmoneyProvider struct {
	baseURL string
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*resty.Client
}

// NewEastmoneyProvider creates the provider for the given API base URL.
func NewEastmoneyProvider(baseURL string, timeout time.Duration) *EastmoneyProvider {
	return &EastmoneyProvider{
		baseURL: baseURL,
		timeout: timeout,
		clients: make(map[string]*resty.Client),
	}
}

// Name returns the provider's registry name.
func (p *EastmoneyProvider) Name() string {
	return string(ProviderEastmoney)
}

// client returns the HTTP client bound to the credential, creating it
// on first use.
func (p *EastmoneyProvider) client(cred *Credential) *resty.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[cred.ID]; ok {
		return c
	}

	c := resty.New().
		SetBaseURL(p.baseURL).
		SetTimeout(p.timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36").
		SetHeader("Referer", "https://quote.eastmoney.com/").
		SetHeader("Accept", "*/*").
		// Retrying is the fetcher's job; the client makes one attempt.
		SetRetryCount(0)

	if cred.Cookie != "" {
		c.SetHeader("Cookie", cred.Cookie)
	}

	if cred.ProxyURL != "" {
		c.SetProxy(cred.ProxyURL)
	}

	p.clients[cred.ID] = c

	return c
}

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchDaily retrieves the daily bar for one instrument and date.
func (p *EastmoneyProvider) FetchDaily(ctx context.Context, cred *Credential, inst types.Instrument, date types.TradingDate) (types.Bar, error) {
	compact := strings.ReplaceAll(date.String(), "-", "")

	var payload klineResponse

	resp, err := p.client(cred).R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"secid":   secID(inst.Code),
			"klt":     "101", // daily bars
			"fqt":     "1",   // forward adjusted
			"fields1": "f1,f2,f3,f4,f5,f6",
			"fields2": klineFields,
			"beg":     compact,
			"end":     compact,
		}).
		SetResult(&payload).
		Get(klinePath)
	if err != nil {
		return types.Bar{}, errors.Wrapf(errors.ErrCodeFetchTransient, err, "request %s for %s", klinePath, inst.Code)
	}

	switch {
	case resp.StatusCode() == http.StatusForbidden, resp.StatusCode() == http.StatusTooManyRequests:
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchRateLimited, "upstream rate limited %s (status %d)", inst.Code, resp.StatusCode())
	case resp.StatusCode() == http.StatusNotFound:
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchNotFound, "no kline endpoint data for %s", inst.Code)
	case resp.StatusCode() != http.StatusOK:
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchTransient, "upstream status %d for %s", resp.StatusCode(), inst.Code)
	}

	if payload.Data == nil || len(payload.Data.Klines) == 0 {
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchNotFound, "no bar for %s on %s", inst.Code, date)
	}

	for _, line := range payload.Data.Klines {
		bar, err := parseKline(inst.Code, line)
		if err != nil {
			return types.Bar{}, err
		}

		if bar.Date.Equal(date) {
			return bar, nil
		}
	}

	return types.Bar{}, errors.Newf(errors.ErrCodeFetchNotFound, "no bar for %s on %s", inst.Code, date)
}

// secID maps an instrument code to the upstream market-prefixed id:
// Shanghai codes are prefixed 1, everything else 0.
func secID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}

	return "0." + code
}

// parseKline decodes one comma-joined kline record. A short or
// unparsable record means the upstream schema changed, which is
// malformed payload, never retried.
func parseKline(code, line string) (types.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 11 {
		return types.Bar{}, errors.Newf(errors.ErrCodeFetchMalformedPayload, "kline record has %d fields: %q", len(parts), line)
	}

	date, err := types.ParseTradingDate(parts[0])
	if err != nil {
		return types.Bar{}, errors.Wrapf(errors.ErrCodeFetchMalformedPayload, err, "kline date %q", parts[0])
	}

	fields := make([]float64, 0, 10)

	for _, raw := range parts[1:11] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeFetchMalformedPayload, err, "kline field %q", raw)
		}

		fields = append(fields, v)
	}

	return types.Bar{
		Code:        code,
		Date:        date,
		Open:        fields[0],
		Close:       fields[1],
		High:        fields[2],
		Low:         fields[3],
		Volume:      fields[4],
		Amount:      fields[5],
		ChangePct:   fields[7],
		TurnoverPct: fields[9],
	}, nil
}
