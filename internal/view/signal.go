package view

import "sync"

// Signal is a broadcast notification with explicit subscription handles.
// It is safe for concurrent use; handlers run on the emitting goroutine.
type Signal struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]func()
}

// Subscribe registers fn. The returned Subscription must be released by
// its owner to unhook fn.
func (s *Signal) Subscribe(fn func()) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[uint64]func())
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return &Subscription{release: func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}}
}

// Emit calls every subscribed handler.
func (s *Signal) Emit() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of live subscriptions.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscription is a handle on one Subscribe call.
type Subscription struct {
	once    sync.Once
	release func()
}

// Release unhooks the handler. Calling it again does nothing.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}
