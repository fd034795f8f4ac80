package util

import "sync"

// SigHandler receives the emitting object and optional params.
type SigHandler func(sender any, params ...any)

// Signals is a tiny in-process event bus keyed by signal name.
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SigHandler
}

func NewSignals() *Signals {
	return &Signals{handlers: make(map[string][]SigHandler)}
}

var defaultSignals = NewSignals()

// Sig returns the process-wide bus.
func Sig() *Signals {
	return defaultSignals
}

func (s *Signals) Connect(name string, h SigHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], h)
}

// Emit calls handlers synchronously in registration order. Handlers that
// do slow work should start their own goroutine.
func (s *Signals) Emit(name string, sender any, params ...any) {
	s.mu.RLock()
	hs := append([]SigHandler(nil), s.handlers[name]...)
	s.mu.RUnlock()
	for _, h := range hs {
		h(sender, params...)
	}
}

func (s *Signals) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, name)
}
