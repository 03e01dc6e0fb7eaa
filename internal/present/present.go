// Package present delivers composed frames to their viewers.
package present

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrClosed is returned by a sink whose viewer has gone away. The frame
// loop stops when it sees it.
var ErrClosed = errors.New("presentation closed")

// Sink receives composed frames. Show must not retain frame past the call.
type Sink interface {
	Show(frame gocv.Mat) error
}

// Func adapts a function to a Sink.
type Func func(frame gocv.Mat) error

func (f Func) Show(frame gocv.Mat) error {
	return f(frame)
}

// Multi shows every frame on each sink in order. An ErrClosed from any
// sink is returned as is; other failures are wrapped with the sink index
// and the remaining sinks still run.
type Multi []Sink

func (m Multi) Show(frame gocv.Mat) error {
	var errs []error
	for i, s := range m {
		err := s.Show(frame)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrClosed) {
			return err
		}
		errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
	}
	return errors.Join(errs...)
}
