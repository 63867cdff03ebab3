// Package feed reconciles the participant directory against the attendance
// ledger: the live feed, summary stats, export rows, and analytics are all
// derived views, never persisted.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"eventcheck/internal/attendance"
	"eventcheck/internal/registration"
	"eventcheck/internal/store"
)

// notScanned is the sentinel for feed fields of participants without an
// attendance record.
const notScanned = "not-scanned"

var statsCacheKey = store.Key("stats")

// Entry is one participant's derived status in the live feed.
type Entry struct {
	ParticipantID  string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistrationID string    `json:"registrationId"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ScannedBy      string    `json:"scannedBy"`
	Location       string    `json:"location"`
}

// Feed is the merged view handed to the dashboard.
type Feed struct {
	Entries      []Entry   `json:"attendance"`
	LastUpdated  time.Time `json:"lastUpdated"`
	TotalRecords int       `json:"totalRecords"`
	PresentCount int       `json:"presentCount"`
	AbsentCount  int       `json:"absentCount"`
}

// Stats are the aggregate attendance numbers.
type Stats struct {
	TotalRegistered int     `json:"totalRegistered"`
	TotalAttended   int     `json:"totalAttended"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	AttendanceRate  float64 `json:"attendanceRate"`
}

// Service computes derived views over the directory and the ledger. cache is
// optional; when set, day-unfiltered stats are cached with a short TTL to
// absorb dashboard polling.
type Service struct {
	participants registration.Store
	ledger       attendance.Store
	cache        *redis.Client
	cacheTTL     time.Duration
}

// NewService creates a feed service. cache may be nil.
func NewService(participants registration.Store, ledger attendance.Store, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Second
	}
	return &Service{participants: participants, ledger: ledger, cache: cache, cacheTTL: cacheTTL}
}

// LiveFeed returns one entry per active participant with their derived
// present/absent status, sorted by timestamp descending. limit <= 0 means
// all participants.
func (s *Service) LiveFeed(ctx context.Context, limit int) (Feed, error) {
	participants, err := s.participants.ListActive(ctx, limit)
	if err != nil {
		return Feed{}, err
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return Feed{}, err
	}

	// One record per participant is the invariant; if the ledger ever holds
	// more, the last record encountered wins.
	byRegistrationID := make(map[string]attendance.Record, len(records))
	for _, rec := range records {
		byRegistrationID[rec.RegistrationID] = rec
	}

	feed := Feed{LastUpdated: time.Now()}
	for _, p := range participants {
		if rec, ok := byRegistrationID[p.RegistrationID]; ok {
			feed.Entries = append(feed.Entries, Entry{
				ParticipantID:  p.ID,
				Name:           p.Name,
				Email:          p.Email,
				RegistrationID: p.RegistrationID,
				Status:         rec.Status,
				Timestamp:      rec.Timestamp,
				ScannedBy:      rec.ScannedBy,
				Location:       rec.Location,
			})
		} else {
			feed.Entries = append(feed.Entries, Entry{
				ParticipantID:  p.ID,
				Name:           p.Name,
				Email:          p.Email,
				RegistrationID: p.RegistrationID,
				Status:         attendance.StatusAbsent,
				Timestamp:      p.RegisteredAt,
				ScannedBy:      notScanned,
				Location:       notScanned,
			})
		}
	}
	sort.Slice(feed.Entries, func(i, j int) bool {
		return feed.Entries[i].Timestamp.After(feed.Entries[j].Timestamp)
	})

	feed.TotalRecords = len(feed.Entries)
	for _, e := range feed.Entries {
		if e.Status == attendance.StatusPresent {
			feed.PresentCount++
		} else {
			feed.AbsentCount++
		}
	}
	return feed, nil
}

// SummaryStats aggregates counts, optionally within one day bucket. The rate
// is a percentage rounded to two decimals, defined as 0 when nobody is
// registered.
func (s *Service) SummaryStats(ctx context.Context, day string) (Stats, error) {
	if day == "" {
		if cached, ok := s.cachedStats(ctx); ok {
			return cached, nil
		}
	}

	totalRegistered, err := s.participants.CountActive(ctx)
	if err != nil {
		return Stats{}, err
	}
	counts, err := s.ledger.CountByStatus(ctx, day)
	if err != nil {
		return Stats{}, err
	}

	totalAttended := 0
	for _, n := range counts {
		totalAttended += n
	}
	present := counts[attendance.StatusPresent]

	stats := Stats{
		TotalRegistered: totalRegistered,
		TotalAttended:   totalAttended,
		Present:         present,
		Absent:          totalRegistered - present,
	}
	if totalRegistered > 0 {
		stats.AttendanceRate = math.Round(float64(present)/float64(totalRegistered)*100*100) / 100
	}

	if day == "" {
		s.storeStats(ctx, stats)
	}
	return stats, nil
}

// InvalidateStats drops the cached stats; the worker calls this after each
// scan so the next dashboard poll recomputes.
func (s *Service) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		log.Printf("stats cache invalidate failed: %v", err)
	}
}

func (s *Service) cachedStats(ctx context.Context) (Stats, bool) {
	if s.cache == nil {
		return Stats{}, false
	}
	data, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return Stats{}, false
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return Stats{}, false
	}
	return stats, true
}

func (s *Service) storeStats(ctx context.Context, stats Stats) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, data, s.cacheTTL).Err(); err != nil {
		log.Printf("stats cache store failed: %v", err)
	}
}
