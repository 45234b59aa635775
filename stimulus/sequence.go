package stimulus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pause between units of the default sequence
const DefaultInterval = time.Second

// Number of single dot units following the marker
const dotCount = 5

// Unit is a single fragment of output, written and flushed in one operation
// Delay is how long the emitter pauses after the fragment is flushed
type Unit struct {
	Payload string
	Delay   time.Duration
}

// Sequence is an ordered list of units. A unit's ordinal is its index.
type Sequence []Unit

// Default returns the fixed stimulus:
//
//	"testing.." (pause) "." (pause) x5 "done\n"
//
// Only the terminal unit carries a newline
func Default() Sequence {
	seq := Sequence{{Payload: "testing..", Delay: DefaultInterval}}
	for range dotCount {
		seq = append(seq, Unit{Payload: ".", Delay: DefaultInterval})
	}
	return append(seq, Unit{Payload: "done\n"})
}

// Bytes returns everything a reader sees after a complete run
func (s Sequence) Bytes() []byte {
	var bldr strings.Builder
	for _, u := range s {
		bldr.WriteString(u.Payload)
	}
	return []byte(bldr.String())
}

// Total time spent paused over a complete run
func (s Sequence) Duration() time.Duration {
	var total time.Duration
	for _, u := range s {
		total += u.Delay
	}
	return total
}

// Validate checks that the sequence can be emitted as individually flushed,
// unterminated fragments. Only the final unit may end in a newline.
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return errors.New("sequence has no units")
	}

	var allErrs error
	for idx, u := range s {
		if u.Payload == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("unit %d: empty payload", idx))
		}
		if u.Delay < 0 {
			allErrs = errors.Join(allErrs, fmt.Errorf("unit %d: negative delay %s", idx, u.Delay))
		}
		if idx < len(s)-1 && strings.HasSuffix(u.Payload, "\n") {
			allErrs = errors.Join(allErrs, fmt.Errorf("unit %d: only the terminal unit may end in a newline", idx))
		}
	}
	return allErrs
}
