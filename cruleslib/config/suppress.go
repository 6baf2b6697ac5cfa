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

package config

import (
	"sort"

	"github.com/golang/glog"
	"github.com/tidwall/btree"

	"naive.systems/bdeverify/cruleslib/location"
)

// level is one push/pop frame. Levels are never modified once a snapshot
// refers to them; a change to the top level copies it first.
type level struct {
	// tags maps a tag, or AllTags, to its suppressed state. Setting AllTags
	// clears the other entries of the level.
	tags   map[string]bool
	values map[string]string
}

func (l *level) clone() *level {
	n := &level{tags: make(map[string]bool, len(l.tags)), values: make(map[string]string, len(l.values))}
	for k, v := range l.tags {
		n.tags[k] = v
	}
	for k, v := range l.values {
		n.values[k] = v
	}
	return n
}

// snapshot is the stack in effect after some directive, outermost first.
type snapshot []*level

// fileState records the directives of one file and indexes the stack state
// after each of them by position.
type fileState struct {
	directives []Directive
	dirty      bool
	index      btree.Map[uint64, snapshot]
}

func key(loc location.Location) uint64 {
	line := uint64(loc.Line)
	if line > 0xffffffff {
		line = 0xffffffff
	}
	return line<<32 | uint64(uint32(loc.Column))
}

func (c *Config) state(file string) *fileState {
	fs, ok := c.files[file]
	if !ok {
		fs = &fileState{}
		c.files[file] = fs
	}
	return fs
}

func (c *Config) record(d Directive) {
	if !d.Where.IsValid() {
		glog.V(1).Infof("config: dropping directive without location: %v", d)
		return
	}
	fs := c.state(d.Where.File)
	fs.directives = append(fs.directives, d)
	fs.dirty = true
}

// invalidate makes every file index rebuild on its next query. Group
// expansion is cached in the indexes.
func (c *Config) invalidate() {
	for _, fs := range c.files {
		fs.dirty = true
	}
}

// Apply records an in-source directive.
func (c *Config) Apply(d Directive) {
	glog.V(2).Infof("config: directive %v", d)
	c.record(d)
}

// PushSuppress opens a new suppression level at where.
func (c *Config) PushSuppress(where location.Location) {
	c.record(Directive{Kind: Push, Where: where})
}

// PopSuppress closes the innermost level open at where. A pop with nothing
// to close is ignored here and reported by CheckStack.
func (c *Config) PopSuppress(where location.Location) {
	c.record(Directive{Kind: Pop, Where: where})
}

// Suppress sets whether tag is suppressed from where on, at the innermost
// level. A group sets itself and each of its members.
func (c *Config) Suppress(tag string, where location.Location, on bool) {
	k := Enable
	if on {
		k = Disable
	}
	c.record(Directive{Kind: k, Tag: tag, Where: where})
}

// SetValue overrides key from where on, at the innermost level.
func (c *Config) SetValue(where location.Location, key, value string) {
	if !where.IsValid() {
		c.values[key] = value
		return
	}
	c.record(Directive{Kind: Set, Key: key, Value: value, Where: where})
}

func (c *Config) rebuild(fs *fileState) {
	sort.SliceStable(fs.directives, func(i, j int) bool {
		return location.Compare(fs.directives[i].Where, fs.directives[j].Where) < 0
	})
	fs.index.Clear()
	stack := snapshot{{tags: map[string]bool{}, values: map[string]string{}}}
	for _, d := range fs.directives {
		switch d.Kind {
		case Push:
			stack = append(stack[:len(stack):len(stack)], &level{tags: map[string]bool{}, values: map[string]string{}})
		case Pop:
			if len(stack) > 1 {
				stack = stack[: len(stack)-1 : len(stack)-1]
			}
		case Disable, Enable:
			top := stack[len(stack)-1].clone()
			if d.Tag == AllTags {
				top.tags = map[string]bool{}
				top.tags[AllTags] = d.Kind == Disable
			} else {
				for _, t := range c.expandTags(d.Tag, true) {
					top.tags[t] = d.Kind == Disable
				}
			}
			stack = replaceTop(stack, top)
		case Set:
			top := stack[len(stack)-1].clone()
			top.values[d.Key] = d.Value
			stack = replaceTop(stack, top)
		}
		fs.index.Set(key(d.Where), stack)
	}
	fs.dirty = false
}

func replaceTop(s snapshot, top *level) snapshot {
	n := make(snapshot, len(s))
	copy(n, s)
	n[len(n)-1] = top
	return n
}

// at returns the stack in effect at where, or nil if no directive of
// where's file precedes it.
func (c *Config) at(where location.Location) snapshot {
	fs, ok := c.files[where.File]
	if !ok {
		return nil
	}
	if fs.dirty {
		c.rebuild(fs)
	}
	var found snapshot
	fs.index.Descend(key(where), func(_ uint64, s snapshot) bool {
		found = s
		return false
	})
	return found
}

// Suppressed reports whether diagnostics tagged tag are suppressed at where.
// The innermost level that mentions tag or AllTags decides. Without one,
// file patterns from "suppress" lines are consulted, and finally the global
// enablement: a disabled tag is suppressed.
func (c *Config) Suppressed(tag string, where location.Location) bool {
	s := c.at(where)
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i].tags[tag]; ok {
			return v
		}
		if v, ok := s[i].tags[AllTags]; ok {
			return v
		}
	}
	if where.IsValid() && c.fileSuppressed(tag, where.File) {
		return true
	}
	return !c.Enabled(tag)
}

func (c *Config) scopedValue(key string, where location.Location) (string, bool) {
	s := c.at(where)
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i].values[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Depth returns the number of levels open at where.
func (c *Config) Depth(where location.Location) int {
	s := c.at(where)
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// Directives returns the recorded directives of file in source order.
func (c *Config) Directives(file string) []Directive {
	fs, ok := c.files[file]
	if !ok {
		return nil
	}
	if fs.dirty {
		c.rebuild(fs)
	}
	return append([]Directive(nil), fs.directives...)
}

// CheckStack replays the push and pop directives of every file in source
// order and returns one defect per pop without a matching push and per push
// still open at the end of its file.
func (c *Config) CheckStack() []StackDefect {
	files := make([]string, 0, len(c.files))
	for f := range c.files {
		files = append(files, f)
	}
	sort.Strings(files)

	var defects []StackDefect
	for _, f := range files {
		var open []location.Location
		for _, d := range c.Directives(f) {
			switch d.Kind {
			case Push:
				open = append(open, d.Where)
			case Pop:
				if len(open) == 0 {
					defects = append(defects, StackDefect{Kind: UnmatchedPop, Where: d.Where})
					continue
				}
				open = open[:len(open)-1]
			}
		}
		for _, w := range open {
			defects = append(defects, StackDefect{Kind: UnclosedPush, Where: w})
		}
	}
	return defects
}
