package nordpool

import (
	"sort"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/price"
	"github.com/sirupsen/logrus"
)

// AreaResult holds one area's samples for a single local day.
type AreaResult struct {
	Area     string
	Currency price.Currency
	Updated  time.Time
	Values   price.Series
}

// Merge joins the yesterday, today and tomorrow responses into one local day per area.
// The local day is the calendar day of ref in each area's own timezone.
// Samples are not sorted. Any sentinel value inside the window fails the whole merge.
func Merge(results []*DayResult, ref time.Time) (map[string]*AreaResult, error) {
	fin := make(map[string]*AreaResult)

	for _, day := range results {
		if day == nil {
			continue
		}

		areas := make([]string, 0, len(day.Areas))
		for area := range day.Areas {
			areas = append(areas, area)
		}
		sort.Strings(areas)

		for _, area := range areas {
			info, ok := price.LookupArea(area)
			if !ok {
				logrus.Debugf("nordpool: skipping unsupported area %s", area)
				continue
			}
			loc, err := info.Location()
			if err != nil {
				return nil, err
			}

			res, ok := fin[area]
			if !ok {
				res = &AreaResult{Area: area}
				fin[area] = res
			}
			res.Currency = day.Currency
			if day.Updated.After(res.Updated) {
				res.Updated = day.Updated
			}

			startOfDay, endOfDay := price.DayBounds(ref, loc)
			for _, val := range day.Areas[area] {
				local := val.Start.In(loc)
				localEnd := val.End.In(loc)

				if local.Equal(localEnd) {
					logrus.Debugf("nordpool: period %s has the same start and end, most likely a dst change, excluded", local)
					continue
				}
				if local.Before(startOfDay) || local.After(endOfDay) {
					continue
				}
				if val.Invalid() {
					return nil, &price.InvalidPeriodDataError{Area: area, Start: local, Value: val.Value}
				}
				res.Values = append(res.Values, price.Sample{Start: local, End: localEnd, Value: val.Value})
			}
		}
	}

	return fin, nil
}
