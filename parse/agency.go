package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

func (a *AgencyCSV) validate() error {
	if a.Name == "" {
		return fmt.Errorf("missing agency_name")
	}
	if a.URL == "" {
		return fmt.Errorf("missing agency_url")
	}
	if a.Timezone == "" {
		return fmt.Errorf("missing agency_timezone")
	}
	return nil
}

// ParseAgency reads agency.txt, returning the set of agency ids and
// the feed timezone. A feed with several agencies must agree on one
// timezone.
func ParseAgency(writer storage.FeedWriter, data io.Reader) (map[string]bool, string, error) {
	records := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &records); err != nil {
		return nil, "", fmt.Errorf("unmarshaling agency csv: %w", err)
	}
	if len(records) == 0 {
		return nil, "", fmt.Errorf("no agency record found")
	}

	tz := records[0].Timezone
	ids := map[string]bool{}
	for _, a := range records {
		if err := a.validate(); err != nil {
			return nil, "", err
		}
		if a.Timezone != tz {
			return nil, "", fmt.Errorf("multiple agency_timezone")
		}
		if ids[a.ID] {
			return nil, "", fmt.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		ids[a.ID] = true
	}

	if _, err := time.LoadLocation(tz); err != nil {
		return nil, "", fmt.Errorf("agency_timezone '%s' is invalid: %w", tz, err)
	}

	for _, a := range records {
		err := writer.WriteAgency(&model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: tz,
		})
		if err != nil {
			return nil, "", fmt.Errorf("writing agency: %w", err)
		}
	}

	return ids, tz, nil
}
