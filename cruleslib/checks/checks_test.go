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

package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"naive.systems/bdeverify/cruleslib/analyzer"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	var order []string
	attach := func(tag string) func(*analyzer.Analyzer) {
		return func(*analyzer.Analyzer) { order = append(order, tag) }
	}
	require.NoError(t, r.Register(Check{Tag: "b", Attach: attach("b")}))
	require.NoError(t, r.Register(Check{Tag: "a", Attach: attach("a")}))
	assert.Error(t, r.Register(Check{Tag: "a", Attach: attach("a")}))
	assert.Error(t, r.Register(Check{Tag: "c"}))
	assert.Error(t, r.Register(Check{Attach: attach("")}))

	assert.Equal(t, []string{"b", "a"}, r.Tags())
	c, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", c.Tag)
	_, ok = r.Lookup("c")
	assert.False(t, ok)

	a := analyzer.New()
	r.Attach(a)
	assert.Equal(t, []string{"b", "a"}, order)
	tags := a.Config().Tags()
	assert.True(t, slices.Contains(tags, "a"))
	assert.True(t, slices.Contains(tags, "b"))
}
