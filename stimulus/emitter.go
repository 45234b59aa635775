package stimulus

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Emitter writes a Sequence to a sink one unit at a time. Every unit is
// flushed before the emitter pauses, so a reader on the other end of a pipe
// can see it immediately.
//
// An Emitter is single use: it owns the buffered writer around the sink and
// no state is shared between emitters.
type Emitter struct {
	out    *bufio.Writer
	seq    Sequence
	sleep  func(time.Duration)
	logger *slog.Logger
}

type Option func(*Emitter)

// Emit a custom sequence instead of Default()
func WithSequence(seq Sequence) Option {
	return func(e *Emitter) {
		e.seq = seq
	}
}

// Replace time.Sleep. Mostly useful for tests
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Emitter) {
		e.sleep = sleep
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func NewEmitter(w io.Writer, opts ...Option) *Emitter {
	e := &Emitter{
		seq:    Default(),
		sleep:  time.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	// The buffer must hold the largest unit, otherwise bufio would
	// split it across several writes to the sink
	size := 0
	for _, u := range e.seq {
		size = max(size, len(u.Payload))
	}
	e.out = bufio.NewWriterSize(w, size)
	return e
}

// Run emits every unit in order: write, flush, pause.
// The first failed write aborts the run. Nothing after the failing
// unit is written and the emitter does not pause again.
func (e *Emitter) Run() error {
	if err := e.seq.Validate(); err != nil {
		return fmt.Errorf("invalid sequence: %w", err)
	}

	logger := e.logger.With("run", uuid.New())
	logger.Debug("Starting emission", "units", len(e.seq), "pause", e.seq.Duration())

	for idx, u := range e.seq {
		if err := e.emit(u); err != nil {
			logger.Debug("Emission aborted", "ordinal", idx, "error", err)
			return fmt.Errorf("failed to emit unit %d (%q): %w", idx, u.Payload, err)
		}
		logger.Debug("Emitted unit", "ordinal", idx, "bytes", len(u.Payload))

		if u.Delay > 0 {
			e.sleep(u.Delay)
		}
	}

	logger.Debug("Emission complete")
	return nil
}

func (e *Emitter) emit(u Unit) error {
	if _, err := e.out.WriteString(u.Payload); err != nil {
		return err
	}
	// Flush is what makes the unit visible downstream. It must
	// happen before we pause
	return e.out.Flush()
}
