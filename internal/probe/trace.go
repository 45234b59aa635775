package probe

import (
	"bytes"
	"errors"
	"io"
	"time"
)

const defaultReadBufferSize = 4096

// Arrival is the data returned by a single read from the emitter's output
// At is measured from the moment observation started
type Arrival struct {
	At   time.Duration
	Data []byte
}

// Trace is every arrival seen by a reader, in order
type Trace []Arrival

// Bytes returns all data received
func (t Trace) Bytes() []byte {
	var buf bytes.Buffer
	for _, a := range t {
		buf.Write(a.Data)
	}
	return buf.Bytes()
}

// Len returns the total number of bytes received
func (t Trace) Len() int {
	total := 0
	for _, a := range t {
		total += len(a.Data)
	}
	return total
}

// Fragments returns the data of each arrival as a string
func (t Trace) Fragments() []string {
	out := make([]string, 0, len(t))
	for _, a := range t {
		out = append(out, string(a.Data))
	}
	return out
}

// Gaps returns the time between each arrival and the one before it
func (t Trace) Gaps() []time.Duration {
	if len(t) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(t)-1)
	for idx := 1; idx < len(t); idx++ {
		gaps = append(gaps, t[idx].At-t[idx-1].At)
	}
	return gaps
}

// Observe reads from r and stamps every chunk of data with the time it
// arrived. Reads block, so a chunk arrives as soon as the writer flushes it.
// Observation stops at EOF, or after 'limit' arrivals when limit > 0.
// EOF is not reported as an error.
func Observe(r io.Reader, limit int) (Trace, error) {
	return observe(r, limit, time.Now)
}

func observe(r io.Reader, limit int, now func() time.Time) (Trace, error) {
	var trace Trace
	start := now()
	buf := make([]byte, defaultReadBufferSize)

	for limit <= 0 || len(trace) < limit {
		count, err := r.Read(buf)
		if count > 0 {
			// Copy only as much as the reader returned
			dst := make([]byte, count)
			copy(dst, buf[:count])
			trace = append(trace, Arrival{At: now().Sub(start), Data: dst})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return trace, nil
			}
			return trace, err
		}
	}
	return trace, nil
}
