package history

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerroom/internal/game"
)

const (
	defaultQueueSize = 64
	writeTimeout     = 5 * time.Second

	// stop writing after this many failures in a row
	maxConsecutiveFailures = 5
)

// Recorder queues round results from sessions and writes them to a Store
// from a single goroutine. It implements game.RoundRecorder.
type Recorder struct {
	store  *Store
	queue  chan game.RoundResult
	logger *log.Logger

	failures int
	disabled bool
}

// NewRecorder creates a recorder writing to store. queueSize <= 0 uses a
// default.
func NewRecorder(store *Store, logger *log.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Recorder{
		store:  store,
		queue:  make(chan game.RoundResult, queueSize),
		logger: logger.WithPrefix("history"),
	}
}

// RecordRound enqueues a result without blocking. Results are dropped
// when the queue is full.
func (r *Recorder) RecordRound(result game.RoundResult) {
	select {
	case r.queue <- result:
	default:
		r.logger.Warn("History queue full, dropping round", "room", result.Room, "round", result.Round)
	}
}

// Run writes queued results until ctx is cancelled, then drains what is
// left in the queue.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case result := <-r.queue:
			r.write(result)
		case <-ctx.Done():
			for {
				select {
				case result := <-r.queue:
					r.write(result)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) write(result game.RoundResult) {
	if r.disabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.Insert(ctx, result); err != nil {
		r.failures++
		r.logger.Error("Failed to record round", "room", result.Room, "round", result.Round, "error", err)
		if r.failures >= maxConsecutiveFailures {
			r.disabled = true
			r.logger.Error("Disabling round history after repeated failures", "failures", r.failures)
		}
		return
	}
	r.failures = 0
	r.logger.Debug("Recorded round", "room", result.Room, "round", result.Round, "winner", result.WinnerID)
}
