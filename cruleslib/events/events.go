/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

/*
Package events provides the subscription channels every check is wired to.

A Channel keeps its handlers in subscription order and calls each of them on
Fire. A handler that panics is recovered and logged, and the remaining
handlers still run, so one check tripping over an unexpected AST shape does
not take the others down with it.
*/
package events

import (
	"runtime/debug"

	"github.com/golang/glog"
)

// PanicHandler is told about every recovered handler panic.
type PanicHandler func(channel string, index int, recovered any)

// Channel is an ordered list of handlers for one event signature. The zero
// value is ready to use; Name is only used for logging.
type Channel[T any] struct {
	Name    string
	OnPanic PanicHandler

	handlers []func(T)
	firing   int
	pending  []func(T)
}

func NewChannel[T any](name string) *Channel[T] {
	return &Channel[T]{Name: name}
}

// Subscribe appends h. Subscribing to a channel from inside one of its own
// handlers is allowed, but h only sees the next Fire.
func (c *Channel[T]) Subscribe(h func(T)) {
	if h == nil {
		return
	}
	if c.firing > 0 {
		glog.Warningf("events: %s: subscribe while firing, handler deferred to next fire", c.name())
		c.pending = append(c.pending, h)
		return
	}
	c.handlers = append(c.handlers, h)
}

// Len returns the number of subscribed handlers.
func (c *Channel[T]) Len() int {
	return len(c.handlers) + len(c.pending)
}

// Fire calls every handler with arg in subscription order and returns the
// number of handlers that panicked.
func (c *Channel[T]) Fire(arg T) int {
	if len(c.handlers) == 0 {
		return 0
	}
	c.firing++
	failed := 0
	for i, h := range c.handlers {
		if !c.call(i, h, arg) {
			failed++
		}
	}
	c.firing--
	if c.firing == 0 && len(c.pending) > 0 {
		c.handlers = append(c.handlers, c.pending...)
		c.pending = nil
	}
	return failed
}

func (c *Channel[T]) call(i int, h func(T), arg T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("events: recovered in %s handler #%d: %v\n%s", c.name(), i, r, string(debug.Stack()))
			if c.OnPanic != nil {
				c.OnPanic(c.name(), i, r)
			}
			ok = false
		}
	}()
	h(arg)
	return true
}

func (c *Channel[T]) name() string {
	if c.Name == "" {
		return "<unnamed>"
	}
	return c.Name
}
