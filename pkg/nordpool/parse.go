package nordpool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/price"
)

var stockholm = mustLoad("Europe/Stockholm")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// DayResult is one parsed provider response for a single delivery day.
type DayResult struct {
	Start    time.Time
	End      time.Time
	Updated  time.Time
	Currency price.Currency
	Areas    map[string]price.Series
}

type response struct {
	Status           *int     `json:"status"`
	Version          *int     `json:"version"`
	DeliveryDateCET  string   `json:"deliveryDateCET"`
	UpdatedAt        string   `json:"updatedAt"`
	DeliveryAreas    []string `json:"deliveryAreas"`
	Market           string   `json:"market"`
	Currency         string   `json:"currency"`
	MultiAreaEntries []entry  `json:"multiAreaEntries"`
}

type entry struct {
	DeliveryStart string               `json:"deliveryStart"`
	DeliveryEnd   string               `json:"deliveryEnd"`
	EntryPerArea  map[string]flexFloat `json:"entryPerArea"`
}

// flexFloat accepts numbers, numeric strings with "," decimals and spaces, and null.
// Anything that does not parse becomes +Inf which is the invalid sentinel.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexFloat(math.Inf(1))
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			*f = flexFloat(math.Inf(1))
			return nil
		}
		s = strings.ReplaceAll(strings.ReplaceAll(unq, ",", "."), " ", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = flexFloat(math.Inf(1))
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// parseTime parses provider instants. Instants without zone are in Stockholm time which Nord Pool uses.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, stockholm)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Parse decodes a provider response keeping only the requested areas.
func Parse(data []byte, currency price.Currency, areas []string) (*DayResult, error) {
	resp := &response{}
	err := json.Unmarshal(data, resp)
	if err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	if resp.Status != nil && *resp.Status != 200 && resp.Version == nil {
		return nil, fmt.Errorf("invalid response from nordpool status: %d", *resp.Status)
	}

	if price.Currency(resp.Currency) != currency {
		return nil, fmt.Errorf("%w: requested %s got %s", price.ErrCurrencyMismatch, currency, resp.Currency)
	}

	wanted := make(map[string]bool, len(areas))
	for _, a := range areas {
		wanted[strings.ToUpper(a)] = true
	}

	result := &DayResult{
		Currency: currency,
		Areas:    make(map[string]price.Series),
	}
	if resp.UpdatedAt != "" {
		result.Updated, err = parseTime(resp.UpdatedAt)
		if err != nil {
			return nil, err
		}
	}

	for i, e := range resp.MultiAreaEntries {
		start, err := parseTime(e.DeliveryStart)
		if err != nil {
			return nil, err
		}
		end, err := parseTime(e.DeliveryEnd)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			result.Start = start
		}
		result.End = end

		for area, value := range e.EntryPerArea {
			if !wanted[strings.ToUpper(area)] {
				continue
			}
			result.Areas[area] = append(result.Areas[area], price.Sample{
				Start: start,
				End:   end,
				Value: float64(value),
			})
		}
	}
	return result, nil
}
