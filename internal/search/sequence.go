package search

import "sync/atomic"

// Sequencer issues increasing request numbers so that a response can be dropped
// when a newer request was issued before it completed.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new sequence number, making every earlier one stale.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// IsLatest reports whether seq is the most recently issued number.
func (s *Sequencer) IsLatest(seq uint64) bool {
	return seq != 0 && s.latest.Load() == seq
}

// Latest returns the most recently issued number, zero when none was issued.
func (s *Sequencer) Latest() uint64 {
	return s.latest.Load()
}
