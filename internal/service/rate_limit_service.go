package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client"
	"github.com/TWRT/board-sync/internal/models"
)

const (
	rateLimitsPath       = "rate_limits"
	clientRateLimitsPath = "rate_limits_clients"
)

type LimitStatus struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Max       int  `json:"max"`
}

// Fingerprint buckets a client by its browser strings. It is not an identity.
func Fingerprint(userAgent, screen, timezone string) string {
	h := fnv.New32a()
	h.Write([]byte(userAgent + "|" + screen + "|" + timezone))
	return hex.EncodeToString(h.Sum(nil))
}

// RateLimitService counts stakeholder requests per UTC day, overall and per
// client fingerprint. Counting is read-then-write and can under-count when two
// requests race; the limit is advisory.
type RateLimitService struct {
	store     client.DocumentStore
	logger    zerolog.Logger
	dailyMax  int
	clientMax int
	now       func() time.Time
}

// NewRateLimitService disables the per-client ceiling when clientMax is zero.
func NewRateLimitService(store client.DocumentStore, dailyMax, clientMax int, logger zerolog.Logger) *RateLimitService {
	return &RateLimitService{
		store:     store,
		logger:    logger.With().Str("service", "rate_limit").Logger(),
		dailyMax:  dailyMax,
		clientMax: clientMax,
		now:       time.Now,
	}
}

func (s *RateLimitService) dateKey() string {
	return s.now().UTC().Format(models.DueDateLayout)
}

func (s *RateLimitService) globalPath() string {
	return rateLimitsPath + "/" + s.dateKey()
}

func (s *RateLimitService) clientPath(fingerprint string) string {
	return clientRateLimitsPath + "/" + s.dateKey() + "/" + fingerprint
}

func (s *RateLimitService) read(ctx context.Context, path string) int {
	raw := s.store.Load(ctx, path)
	if raw == nil {
		return 0
	}
	var record *models.RateLimitRecord
	if err := json.Unmarshal(raw, &record); err != nil || record == nil {
		return 0
	}
	return record.Count
}

func (s *RateLimitService) write(ctx context.Context, path string, count int) error {
	record := models.RateLimitRecord{
		Count:       count,
		LastUpdated: models.FormatTimestamp(s.now()),
	}
	if s.store.Put(ctx, path, record) == nil {
		return fmt.Errorf("write %s: %w", path, ErrPersistFailed)
	}
	return nil
}

// TodayUsage is today's overall count.
func (s *RateLimitService) TodayUsage(ctx context.Context) int {
	return s.read(ctx, s.globalPath())
}

func (s *RateLimitService) ClientUsage(ctx context.Context, fingerprint string) int {
	if fingerprint == "" {
		return 0
	}
	return s.read(ctx, s.clientPath(fingerprint))
}

// Check allows a request only while every applicable ceiling is unviolated.
// Used, Remaining and Max describe the overall daily ceiling.
func (s *RateLimitService) Check(ctx context.Context, fingerprint string) LimitStatus {
	used := s.TodayUsage(ctx)
	status := LimitStatus{
		Allowed:   used < s.dailyMax,
		Used:      used,
		Remaining: max(0, s.dailyMax-used),
		Max:       s.dailyMax,
	}

	if status.Allowed && fingerprint != "" && s.clientMax > 0 {
		if s.ClientUsage(ctx, fingerprint) >= s.clientMax {
			status.Allowed = false
		}
	}
	return status
}

// Increment re-reads and writes count+1 for today, and for the client when a
// fingerprint is given. Counts are never clamped.
func (s *RateLimitService) Increment(ctx context.Context, fingerprint string) error {
	if err := s.write(ctx, s.globalPath(), s.TodayUsage(ctx)+1); err != nil {
		return err
	}
	if fingerprint == "" || s.clientMax <= 0 {
		return nil
	}
	return s.write(ctx, s.clientPath(fingerprint), s.ClientUsage(ctx, fingerprint)+1)
}

// TimeUntilReset is the time left until the next UTC midnight.
func (s *RateLimitService) TimeUntilReset() (hours, minutes int) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	left := midnight.Sub(now)
	return int(left / time.Hour), int((left % time.Hour) / time.Minute)
}

func (s *RateLimitService) TimeUntilResetString() string {
	h, m := s.TimeUntilReset()
	return fmt.Sprintf("%dh %dm", h, m)
}
