package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errSendClosed = errors.New("closed")

// recorder is a Sender that keeps everything it is given.
type recorder struct {
	mu     sync.Mutex
	msgs   []Message
	closed bool
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 128)}
}

func (r *recorder) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errSendClosed
	}
	r.msgs = append(r.msgs, msg)
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

func (r *recorder) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *recorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// countingObserver tallies Observer callbacks.
type countingObserver struct {
	mu        sync.Mutex
	admitted  int
	denied    map[string]int
	left      int
	delivered int
	dropped   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{denied: map[string]int{}, dropped: map[string]int{}}
}

func (o *countingObserver) ClientAdmitted(int) {
	o.mu.Lock()
	o.admitted++
	o.mu.Unlock()
}

func (o *countingObserver) AdmissionDenied(reason string) {
	o.mu.Lock()
	o.denied[reason]++
	o.mu.Unlock()
}

func (o *countingObserver) ClientDisconnected(int) {
	o.mu.Lock()
	o.left++
	o.mu.Unlock()
}

func (o *countingObserver) RelayDelivered() {
	o.mu.Lock()
	o.delivered++
	o.mu.Unlock()
}

func (o *countingObserver) MessageDropped(reason string) {
	o.mu.Lock()
	o.dropped[reason]++
	o.mu.Unlock()
}

func (o *countingObserver) droppedFor(reason string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped[reason]
}

func startHub(t *testing.T, cfg HubConfig) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(cfg, nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func mustAdmit(t *testing.T, hub *Hub, sender Sender) Admission {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	adm, err := hub.Admit(ctx, sender, nil, nil)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	return adm
}

// mustMessages waits until r holds at least n messages and returns them.
func mustMessages(t *testing.T, r *recorder, n int) []Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := r.messages(); len(msgs) >= n {
			return msgs
		}
		select {
		case <-r.notify:
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Fatalf("expected %d messages, got %d", n, len(r.messages()))
	return nil
}

func rosterNames(entries []RosterEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
