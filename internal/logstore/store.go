package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/neuroglove/internal/device"
)

// KV is the persistence the store needs. kvstore.Store satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrMalformedRecord reports a day record that is not a JSON array of lines.
var ErrMalformedRecord = errors.New("malformed day record")

// Store keeps one record per calendar day. Each record is a JSON array of
// formatted lines in append order.
type Store struct {
	kv  KV
	loc *time.Location
	log logrus.FieldLogger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the calendar used for day partitioning. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, loc: time.Local, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location reports the calendar used for partitioning.
func (s *Store) Location() *time.Location { return s.loc }

// Append adds e to the record for its day. Failures are logged and returned;
// the live session ignores them. A malformed record is left untouched and
// the append fails with ErrMalformedRecord.
func (s *Store) Append(ctx context.Context, e device.Entry) error {
	key := DayKey(e.Timestamp, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLines(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("load day record for append")
		return err
	}
	lines = append(lines, FormatLine(e, s.loc))
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		err = fmt.Errorf("store %s: %w", key, err)
		s.log.WithError(err).WithField("key", key).Error("persist log entry")
		return err
	}
	return nil
}

// readLines returns the stored lines for key.
func (s *Store) readLines(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var lines []string
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", key, ErrMalformedRecord, err)
	}
	return lines, nil
}

// LoadDay returns the entries recorded on day in stored order. A missing or
// malformed record yields no entries. Lines that fail to parse are dropped.
func (s *Store) LoadDay(ctx context.Context, day time.Time) ([]device.Entry, error) {
	y, m, d := day.In(s.loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	key := DayKey(midnight, s.loc)

	lines, err := s.readLines(ctx, key)
	if errors.Is(err, ErrMalformedRecord) {
		s.log.WithError(err).WithField("key", key).Warn("malformed day record")
		return []device.Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := make([]device.Entry, 0, len(lines))
	for _, line := range lines {
		e, err := ParseLine(line, midnight)
		if err != nil {
			s.log.WithError(err).WithField("key", key).Debug("drop stored line")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Days lists days that have a record, newest first.
func (s *Store) Days(ctx context.Context) ([]time.Time, error) {
	keys, err := s.kv.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list day records: %w", err)
	}
	days := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		if day, ok := ParseDayKey(k, s.loc); ok {
			days = append(days, day)
		}
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })
	return days, nil
}
