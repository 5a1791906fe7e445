package nordpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/sirupsen/logrus"
)

const DefaultURL = "https://dataportal-api.nordpoolgroup.com/api"

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

type Client struct {
	baseURL  string
	currency price.Currency

	// MaxElapsedTime bounds the retries of one fetch. Zero retries forever until ctx is done.
	MaxElapsedTime time.Duration
}

func New(baseURL string, currency price.Currency) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		currency:       currency,
		MaxElapsedTime: 2 * time.Minute,
	}
}

func (c *Client) Currency() price.Currency {
	return c.currency
}

// Fetch fetches the day-ahead prices for the CET delivery day of day.
// It returns nil without error when the provider has no data yet.
// Transport failures are retried with exponential backoff, a currency mismatch is not.
func (c *Client) Fetch(ctx context.Context, day time.Time, areas []string) (*DayResult, error) {
	if len(areas) == 0 {
		return nil, fmt.Errorf("cannot query with empty areas")
	}

	var result *DayResult
	operation := func() error {
		r, err := c.fetch(ctx, day, areas)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 20 * time.Second
	b.MaxElapsedTime = c.MaxElapsedTime

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		logrus.WithFields(logrus.Fields{
			"date":  day.In(stockholm).Format("2006-01-02"),
			"areas": areas,
			"wait":  d,
		}).Warnf("nordpool: fetch failed: %s", err)
	})
	return result, err
}

func (c *Client) fetch(ctx context.Context, day time.Time, areas []string) (*DayResult, error) {
	params := url.Values{}
	params.Set("currency", string(c.currency))
	params.Set("market", "DayAhead")
	params.Set("deliveryArea", strings.Join(areas, ","))
	params.Set("date", day.In(stockholm).Format("2006-01-02"))
	u := fmt.Sprintf("%s/DayAheadPrices?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	logrus.Debugf("nordpool: requested %s status %d", u, resp.StatusCode)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("error fetching prices StatusCode: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	result, err := Parse(body, c.currency, areas)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return result, nil
}

// FetchWindow fetches the day before, the day of and the day after ref
// and merges them into ref's local day for every area.
// The result is empty while the CET delivery day of ref is not published,
// even if a neighbouring day overlaps ref's local day.
func (c *Client) FetchWindow(ctx context.Context, ref time.Time, areas []string) (map[string]*AreaResult, error) {
	days := []time.Time{ref.AddDate(0, 0, -1), ref, ref.AddDate(0, 0, 1)}
	results := make([]*DayResult, len(days))
	errs := make([]error, len(days))

	wg := &sync.WaitGroup{}
	for i, day := range days {
		wg.Add(1)
		go func(i int, day time.Time) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(ctx, day, areas)
		}(i, day)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if results[1] == nil {
		return map[string]*AreaResult{}, nil
	}
	return Merge(results, ref)
}

// FetchArea returns the local day of day for one area. A nil series means the provider has not published it yet.
func (c *Client) FetchArea(ctx context.Context, area string, day time.Time) (price.Series, error) {
	merged, err := c.FetchWindow(ctx, day, []string{area})
	if err != nil {
		return nil, err
	}
	res, ok := merged[area]
	if !ok {
		return nil, nil
	}
	return res.Values, nil
}
