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

// Package checks is the registry of the checks a run attaches to each
// translation unit.
package checks

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/analyzer"
)

type Check struct {
	// Tag is the name the check reports under and is configured by.
	Tag         string
	Description string
	// Attach subscribes the check to the events of one translation unit.
	Attach func(a *analyzer.Analyzer)
}

// Registry holds checks in registration order.
type Registry struct {
	mu      sync.Mutex
	byTag   map[string]*Check
	ordered []*Check
}

func NewRegistry() *Registry {
	return &Registry{byTag: make(map[string]*Check)}
}

// Register adds c after the checks already registered. Tags must be unique.
func (r *Registry) Register(c Check) error {
	if c.Tag == "" {
		return fmt.Errorf("check without a tag")
	}
	if c.Attach == nil {
		return fmt.Errorf("check %s has no Attach function", c.Tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTag[c.Tag]; ok {
		return fmt.Errorf("check %s registered twice", c.Tag)
	}
	r.byTag[c.Tag] = &c
	r.ordered = append(r.ordered, &c)
	return nil
}

func (r *Registry) Lookup(tag string) (*Check, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byTag[tag]
	return c, ok
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags := make([]string, 0, len(r.ordered))
	for _, c := range r.ordered {
		tags = append(tags, c.Tag)
	}
	return tags
}

func (r *Registry) Checks() []*Check {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Check(nil), r.ordered...)
}

// Attach declares every tag in the configuration of a and attaches every
// check, in registration order. Checks whose tag is disabled everywhere
// are still attached: in-source directives may enable them locally.
func (r *Registry) Attach(a *analyzer.Analyzer) {
	for _, c := range r.Checks() {
		a.Config().Declare(c.Tag)
		glog.V(2).Infof("checks: attaching %s to %s", c.Tag, a.Toplevel())
		c.Attach(a)
	}
}
