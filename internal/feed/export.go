package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"eventcheck/internal/attendance"
)

// exportTimeLayout is the human-readable timestamp format in export rows.
const exportTimeLayout = "2006-01-02 15:04:05"

// ExportHeader is the first row of every export.
var ExportHeader = []string{"Name", "Email", "Registration ID", "Status", "Timestamp", "Scanned By", "Location"}

// ExportRows assembles spreadsheet rows: the header, one row per attendance
// record matching the filters, then one synthetic ABSENT row per active
// participant missing from the filtered set. day and status may be empty.
func (s *Service) ExportRows(ctx context.Context, day, status string) ([][]string, error) {
	all, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListActive(ctx, 0)
	if err != nil {
		return nil, err
	}

	var records []attendance.Record
	for _, rec := range all {
		if day != "" && rec.DayBucket != day {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	rows := [][]string{ExportHeader}
	attended := make(map[string]bool, len(records))
	for _, rec := range records {
		attended[rec.ParticipantID] = true
		rows = append(rows, []string{
			rec.Name,
			rec.Email,
			rec.RegistrationID,
			strings.ToUpper(rec.Status),
			rec.Timestamp.Format(exportTimeLayout),
			rec.ScannedBy,
			rec.Location,
		})
	}
	for _, p := range participants {
		if attended[p.ID] {
			continue
		}
		rows = append(rows, []string{p.Name, p.Email, p.RegistrationID, "ABSENT", "-", "-", "-"})
	}
	return rows, nil
}

// DailyStat is one day's record count for one status.
type DailyStat struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HourlyStat is today's record count for one hour.
type HourlyStat struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Analytics bundles the dashboard's trend views.
type Analytics struct {
	DailyStats         []DailyStat    `json:"dailyStats"`
	HourlyStats        []HourlyStat   `json:"hourlyStats"`
	StatusDistribution map[string]int `json:"statusDistribution"`
	Period             Period         `json:"period"`
}

// Period describes the analytics window.
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Days      int    `json:"days"`
}

// Analytics aggregates daily, hourly, and status distributions over the last
// days calendar days (inclusive of today).
func (s *Service) Analytics(ctx context.Context, days int) (Analytics, error) {
	if days <= 0 {
		days = 7
	}
	now := time.Now()
	start := now.AddDate(0, 0, -days)
	startDay := attendance.DayBucket(start)
	today := attendance.DayBucket(now)

	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return Analytics{}, err
	}

	daily := map[string]map[string]int{}
	hourly := map[int]int{}
	distribution := map[string]int{}
	for _, rec := range records {
		if rec.DayBucket < startDay {
			continue
		}
		if daily[rec.DayBucket] == nil {
			daily[rec.DayBucket] = map[string]int{}
		}
		daily[rec.DayBucket][rec.Status]++
		distribution[rec.Status]++
		if rec.DayBucket == today {
			hourly[rec.Timestamp.Local().Hour()]++
		}
	}

	out := Analytics{
		StatusDistribution: distribution,
		Period:             Period{StartDate: startDay, EndDate: today, Days: days},
	}
	for date, statuses := range daily {
		for status, n := range statuses {
			out.DailyStats = append(out.DailyStats, DailyStat{Date: date, Status: status, Count: n})
		}
	}
	sort.Slice(out.DailyStats, func(i, j int) bool {
		a, b := out.DailyStats[i], out.DailyStats[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Status < b.Status
	})
	for h := 0; h < 24; h++ {
		if n, ok := hourly[h]; ok {
			out.HourlyStats = append(out.HourlyStats, HourlyStat{Hour: h, Count: n})
		}
	}
	return out, nil
}
