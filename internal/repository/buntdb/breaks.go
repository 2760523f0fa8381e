package buntdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/shiftdesk/timeclock-backend-go/internal/domain/breaks"
)

// breakLedger keeps each user's break intervals in a buntdb opened with
// ":memory:". The data is deliberately ephemeral: break history is not
// part of the attendance record, and a restart drops it.
type breakLedger struct {
	db *buntdb.DB
}

// NewBreakLedger opens the in-memory database backing the ledger.
func NewBreakLedger() (breaks.Ledger, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open break ledger: %w", err)
	}
	return &breakLedger{db: db}, nil
}

func ledgerKey(userID string) string {
	return "breaks:" + userID
}

func (l *breakLedger) load(tx *buntdb.Tx, userID string) ([]breaks.Interval, error) {
	v, err := tx.Get(ledgerKey(userID))
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var intervals []breaks.Interval
	if err := json.Unmarshal([]byte(v), &intervals); err != nil {
		return nil, err
	}
	return intervals, nil
}

func (l *breakLedger) store(tx *buntdb.Tx, userID string, intervals []breaks.Interval) error {
	bs, err := json.Marshal(intervals)
	if err != nil {
		return err
	}
	_, _, err = tx.Set(ledgerKey(userID), string(bs), nil)
	return err
}

// Start implements breaks.Ledger.
func (l *breakLedger) Start(_ context.Context, userID string, at time.Time) error {
	return l.db.Update(func(tx *buntdb.Tx) error {
		intervals, err := l.load(tx, userID)
		if err != nil {
			return err
		}
		if len(intervals) > 0 && intervals[len(intervals)-1].Open() {
			return breaks.ErrBreakAlreadyOpen
		}
		intervals = append(intervals, breaks.Interval{Start: at})
		return l.store(tx, userID, intervals)
	})
}

// End implements breaks.Ledger. Ending with no open interval is a
// no-op by contract.
func (l *breakLedger) End(_ context.Context, userID string, at time.Time) error {
	return l.db.Update(func(tx *buntdb.Tx) error {
		intervals, err := l.load(tx, userID)
		if err != nil {
			return err
		}
		if len(intervals) == 0 || !intervals[len(intervals)-1].Open() {
			return nil
		}
		intervals[len(intervals)-1].End = &at
		return l.store(tx, userID, intervals)
	})
}

// Intervals implements breaks.Ledger.
func (l *breakLedger) Intervals(_ context.Context, userID string) ([]breaks.Interval, error) {
	var intervals []breaks.Interval
	err := l.db.View(func(tx *buntdb.Tx) error {
		var err error
		intervals, err = l.load(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

// Clear implements breaks.Ledger.
func (l *breakLedger) Clear(_ context.Context, userID string) error {
	return l.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(ledgerKey(userID))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
}
