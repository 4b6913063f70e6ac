// Package service holds the sample-intake rules: client eligibility, the
// sample lifecycle state machine with its history ledger, and assay
// tracking. It depends only on repository.Store; the HTTP layer and the
// concrete database are someone else's concern.
package service

import (
	"time"

	"github.com/lalith-99/labintake/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now. Tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the lab's time zone. It decides the calendar date in
// sample codes and what "today" means for assay due dates. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func New(store repository.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today returns midnight UTC of the current calendar date in the lab's zone,
// the same normalisation applied to assay due dates.
func (s *Service) today() time.Time {
	return dateOnly(s.now().In(s.loc))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
