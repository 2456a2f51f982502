package transport

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrClosed is returned when publishing to a closed mailbox or sink.
var ErrClosed = errors.New("transport closed")

// MailboxStats holds lifetime counters of a Mailbox.
type MailboxStats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
}

// Mailbox is a single-slot buffer with overwrite semantics.
//
// Put never blocks: a frame that has not been taken yet is replaced and
// counted as dropped. Take blocks until a frame is available or the mailbox
// is closed. A frame pending at Close is still delivered.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *Frame
	closed bool
	stats  MailboxStats
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Put publishes a frame, replacing any unconsumed one.
//
// Returns:
//   - error: ErrClosed after Close.
func (m *Mailbox) Put(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.frame != nil {
		m.stats.Dropped++
	}
	m.frame = &f
	m.stats.Published++
	m.cond.Broadcast()
	return nil
}

// PutWait publishes a frame after the previous one has been taken, so nothing
// is dropped. It is meant for file sources that can be paced by the consumer.
//
// Returns:
//   - error: ErrClosed if the mailbox is closed before the slot frees up.
func (m *Mailbox) PutWait(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame != nil && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return ErrClosed
	}
	m.frame = &f
	m.stats.Published++
	m.cond.Broadcast()
	return nil
}

// Take blocks until a frame is available.
//
// Returns:
//   - Frame: The most recent frame.
//   - bool: false once the mailbox is closed and drained.
func (m *Mailbox) Take() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	if m.frame == nil {
		return Frame{}, false
	}

	f := *m.frame
	m.frame = nil
	m.stats.Consumed++
	m.cond.Broadcast()
	return f, true
}

// Close wakes every blocked Take. It is safe to call more than once.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cond.Broadcast()
}

// Stats returns a copy of the counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
