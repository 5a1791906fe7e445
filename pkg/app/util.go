package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

const stockholm = "Europe/Stockholm"

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// periodSpec fires at the start of every price period.
func periodSpec(quarterHourly bool) string {
	if quarterHourly {
		return "0 */15 * * * *"
	}
	return "0 0 * * * *"
}

// daySpec fires at local midnight in timezone.
func daySpec(timezone string) string {
	return fmt.Sprintf("CRON_TZ=%s 0 0 0 * * *", timezone)
}

// publishSpec fires when tomorrow's prices are expected, Stockholm time.
func publishSpec(hour, minute, second int) string {
	return fmt.Sprintf("CRON_TZ=%s %d %d %d * * *", stockholm, second, minute, hour)
}
