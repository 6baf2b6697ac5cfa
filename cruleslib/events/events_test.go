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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFireOrder(t *testing.T) {
	c := NewChannel[int]("order")
	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		c.Subscribe(func(v int) { got = append(got, i*10+v) })
	}
	for round := 0; round < 3; round++ {
		got = nil
		assert.Equal(t, 0, c.Fire(round))
		assert.Equal(t, []int{10 + round, 20 + round, 30 + round, 40 + round, 50 + round}, got)
	}
}

func TestPanicDoesNotStopLaterHandlers(t *testing.T) {
	c := NewChannel[string]("panics")
	var seen []string
	var panics []int
	c.OnPanic = func(_ string, index int, _ any) { panics = append(panics, index) }
	c.Subscribe(func(s string) { seen = append(seen, "a:"+s) })
	c.Subscribe(func(string) { panic("boom") })
	c.Subscribe(func(s string) {
		var m map[string]int
		m[s] = 1 // nil map write
	})
	c.Subscribe(func(s string) { seen = append(seen, "d:"+s) })

	assert.Equal(t, 2, c.Fire("x"))
	assert.Equal(t, []string{"a:x", "d:x"}, seen)
	assert.Equal(t, []int{1, 2}, panics)
}

func TestSubscribeWhileFiring(t *testing.T) {
	var c Channel[int]
	calls := 0
	c.Subscribe(func(int) {
		calls++
		c.Subscribe(func(int) { calls += 100 })
	})
	c.Fire(0)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, c.Len())
	c.Fire(0)
	assert.Equal(t, 102, calls)
}

func TestReentrantFire(t *testing.T) {
	outer := NewChannel[int]("outer")
	inner := NewChannel[int]("inner")
	var trace []string
	inner.Subscribe(func(v int) { trace = append(trace, "inner") })
	outer.Subscribe(func(v int) {
		trace = append(trace, "outer")
		inner.Fire(v)
	})
	outer.Subscribe(func(v int) { trace = append(trace, "outer2") })
	outer.Fire(1)
	assert.Equal(t, []string{"outer", "inner", "outer2"}, trace)
}

func TestNilHandlerIgnored(t *testing.T) {
	var c Channel[int]
	c.Subscribe(nil)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Fire(1))
}
