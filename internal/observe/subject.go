// Package observe provides a synchronous publish/subscribe primitive.
package observe

import "fmt"

// Handle identifies one subscription on a Subject.
type Handle uint64

// Func receives a notification payload. A non-nil error stops the
// remaining notifications of that Notify call.
type Func[T any] func(T) error

type subscription[T any] struct {
	handle Handle
	fn     Func[T]
}

// Subject holds an ordered list of subscribers. The zero value is ready to
// use. A Subject is not safe for concurrent use.
type Subject[T any] struct {
	subs []subscription[T]
	last Handle
}

// Attach appends fn to the subscriber list and returns its handle.
func (s *Subject[T]) Attach(fn Func[T]) Handle {
	s.last++
	s.subs = append(s.subs, subscription[T]{handle: s.last, fn: fn})
	return s.last
}

// Detach removes the subscription with handle h. It reports whether a
// subscription was removed.
func (s *Subject[T]) Detach(h Handle) bool {
	for i, sub := range s.subs {
		if sub.handle == h {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of attached subscribers.
func (s *Subject[T]) Len() int {
	return len(s.subs)
}

// Notify calls every subscriber in registration order with v. The first
// subscriber error aborts the fan-out and is returned.
func (s *Subject[T]) Notify(v T) error {
	for i, sub := range s.subs {
		if err := sub.fn(v); err != nil {
			return fmt.Errorf("subscriber %d: %w", i, err)
		}
	}
	return nil
}
