// Package events is a small typed publish/subscribe bus connecting the
// CMake controller, the build configuration and its observers.
package events

import (
	"sync"

	"github.com/qiniu/x/log"

	"github.com/goplus/cmakecfg/pkgs/cmakeconfig"
)

// Handler receives values published on a topic.
type Handler[T any] func(T)

type subscription[T any] struct {
	id int
	fn Handler[T]
}

// Topic is a named channel of values of type T. The zero value is ready
// to use. Handlers run synchronously on the publishing goroutine in
// subscription order.
type Topic[T any] struct {
	Name string

	mu     sync.Mutex
	nextID int
	subs   []subscription[T]
}

// Subscribe registers fn and returns a function that removes it again.
func (t *Topic[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := append([]subscription[T](nil), t.subs...)
	t.mu.Unlock()

	if t.Name != "" {
		log.Debugf("events: %s -> %d subscriber(s)", t.Name, len(subs))
	}
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// ParseResult is published when CMake finished configuring.
type ParseResult struct {
	// Configuration is the current cache reported by CMake; nil on failure.
	Configuration *cmakeconfig.Store
	Err           error
}

// OK reports whether the run succeeded.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// Bus groups the topics of one build configuration.
type Bus struct {
	ParsingStarted       Topic[struct{}]
	ParsingFinished      Topic[ParseResult]
	ErrorOccurred        Topic[string]
	WarningOccurred      Topic[string]
	EnvironmentChanged   Topic[struct{}]
	KitUpdated           Topic[struct{}]
	ConfigurationChanged Topic[[]string]
	EnabledChanged       Topic[bool]
}

// NewBus returns a bus with named topics.
func NewBus() *Bus {
	b := &Bus{}
	b.ParsingStarted.Name = "parsingStarted"
	b.ParsingFinished.Name = "parsingFinished"
	b.ErrorOccurred.Name = "errorOccurred"
	b.WarningOccurred.Name = "warningOccurred"
	b.EnvironmentChanged.Name = "environmentChanged"
	b.KitUpdated.Name = "kitUpdated"
	b.ConfigurationChanged.Name = "configurationChanged"
	b.EnabledChanged.Name = "enabledChanged"
	return b
}
