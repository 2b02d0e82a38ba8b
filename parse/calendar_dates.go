package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

type CalendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

// ParseCalendarDates reads calendar_dates.txt, returning the set of
// service ids it mentions and the earliest/latest exception dates.
// The date range matters when a feed carries no calendar.txt at all:
// the exceptions then define the calendar range.
func ParseCalendarDates(
	writer storage.FeedWriter,
	data io.Reader,
) (map[string]bool, string, string, error) {

	services := map[string]bool{}
	seen := map[string]bool{}
	var minDate, maxDate string

	err := gocsv.UnmarshalToCallbackWithError(data, func(cd CalendarDateCSV) error {
		if cd.ExceptionType != 1 && cd.ExceptionType != 2 {
			return fmt.Errorf("illegal exception_type: '%d'", cd.ExceptionType)
		}
		if _, err := time.ParseInLocation("20060102", cd.Date, time.UTC); err != nil {
			return fmt.Errorf("parsing date '%s': %w", cd.Date, err)
		}

		key := cd.Date + "-" + cd.ServiceID
		if seen[key] {
			return fmt.Errorf("duplicate service/date: '%s'", key)
		}
		seen[key] = true
		services[cd.ServiceID] = true

		if minDate == "" || cd.Date < minDate {
			minDate = cd.Date
		}
		if cd.Date > maxDate {
			maxDate = cd.Date
		}

		return writer.WriteCalendarDate(&model.CalendarDate{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: cd.ExceptionType,
		})
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("reading calendar_dates: %w", err)
	}

	return services, minDate, maxDate, nil
}
