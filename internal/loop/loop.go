// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package loop provides the ordered executor on which session, channel and
// presence state is mutated.
package loop // import "mellium.im/jingle/internal/loop"

import (
	"errors"
	"reflect"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned when work is submitted to a loop that was closed.
var ErrClosed = errors.New("loop: closed")

// Loop runs functions one at a time on a single goroutine in the order they
// were submitted.
type Loop struct {
	logger    zerolog.Logger
	queue     chan func()
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a loop with a submission queue of the given size.
func New(queueSize int, logger zerolog.Logger) *Loop {
	if queueSize < 0 {
		queueSize = 0
	}
	l := &Loop{
		logger: logger,
		queue:  make(chan func(), queueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case f := <-l.queue:
			l.call(f)
		case <-l.closed:
			// Drain what was already queued so callers blocked in Call return.
			for {
				select {
				case f := <-l.queue:
					l.call(f)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) call(f func()) {
	defer func() {
		if e := recover(); e != nil {
			l.logger.Error().
				Str("func", functionName(f)).
				Interface("panic", e).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic on loop")
		}
	}()
	f()
}

func functionName(i any) string {
	return runtime.FuncForPC(reflect.ValueOf(i).Pointer()).Name()
}

// Execute queues f.
// It reports ErrClosed if the loop was closed.
func (l *Loop) Execute(f func()) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	select {
	case l.queue <- f:
		return nil
	case <-l.closed:
		return ErrClosed
	}
}

// Call runs f on the loop and waits for its result.
// It must not be used from a function that is itself running on the loop.
func (l *Loop) Call(f func() error) error {
	result := make(chan error, 1)
	err := l.Execute(func() {
		result <- f()
	})
	if err != nil {
		return err
	}
	select {
	case err = <-result:
		return err
	case <-l.done:
		select {
		case err = <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Close stops accepting work and waits until queued work has run.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
	<-l.done
}
