package audit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder collects events in memory and periodically flushes them to the
// _audit_events table in a batch insert. A nil Recorder is a no-op, so
// call sites never need to branch on whether auditing is enabled.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	pool    *pgxpool.Pool
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
}

// NewRecorder creates a recorder that flushes on a timer or when full.
func NewRecorder(pool *pgxpool.Pool, maxSize int, flushIntervalMs int) *Recorder {
	r := &Recorder{
		pool:    pool,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	r.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	go r.run()
	return r
}

func (r *Recorder) run() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			r.Flush()
		}
	}
}

// Record adds an event to the buffer. If the buffer is full, a flush is
// triggered asynchronously.
func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	shouldFlush := len(r.events) >= r.maxSize
	r.mu.Unlock()
	if shouldFlush {
		go r.Flush()
	}
}

// Flush writes all buffered events to the database in a single batch insert.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	r.mu.Lock()
	if len(r.events) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.events
	r.events = nil
	r.mu.Unlock()

	ctx := context.Background()
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		log.Printf("ERROR: audit recorder acquire conn: %v", err)
		return
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Printf("ERROR: audit recorder begin tx: %v", err)
		return
	}

	_, err = tx.Exec(ctx, "SET LOCAL synchronous_commit = off")
	if err != nil {
		tx.Rollback(ctx)
		log.Printf("ERROR: audit recorder set sync commit: %v", err)
		return
	}

	cols := []string{"user_id", "module", "action", "decision", "cause", "method", "path", "duration_ms"}
	var placeholders []string
	var args []any
	for i, e := range batch {
		offset := i * len(cols)
		ph := make([]string, len(cols))
		for j := range cols {
			ph[j] = fmt.Sprintf("$%d", offset+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
		args = append(args, e.UserID, e.Module, e.Action, e.Decision, e.Cause, e.Method, e.Path, e.DurationMs)
	}

	sql := fmt.Sprintf("INSERT INTO _audit_events (%s) VALUES %s", strings.Join(cols, ","), strings.Join(placeholders, ","))
	_, err = tx.Exec(ctx, sql, args...)
	if err != nil {
		tx.Rollback(ctx)
		log.Printf("ERROR: audit recorder insert: %v", err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("ERROR: audit recorder commit: %v", err)
	}
}

// Stop halts the background ticker and flushes remaining events.
func (r *Recorder) Stop() {
	if r == nil {
		return
	}
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
	r.Flush()
}
