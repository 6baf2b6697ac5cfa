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
Package config holds check enablement, key/value settings and the
location-scoped suppression state driven by in-source pragmas.

Settings come from configuration lines:

	namespace NAME
	all on|off
	check TAG on|off
	group NAME MEMBER...
	load PATH
	set KEY VALUE...
	append KEY VALUE...
	prepend KEY VALUE...
	suppress TAG GLOB...

Words are split shell-style, "#" starts a comment and malformed lines are
ignored. A Config belongs to one translation unit and is not safe for
concurrent use; Clone gives each unit its own copy of a shared base.
*/
package config

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"github.com/google/shlex"
	"golang.org/x/exp/slices"

	"naive.systems/bdeverify/cruleslib/location"
)

const (
	// DefaultNamespace is the enterprise namespace assumed when none is
	// configured.
	DefaultNamespace = "BloombergLP"
	KeyNamespace     = "namespace"
)

type fileSuppression struct {
	tag   string
	globs []string
}

type Config struct {
	allOn      bool
	enabled    map[string]bool
	declared   map[string]bool
	groups     map[string][]string
	values     map[string]string
	fileGlobs  []fileSuppression
	loadErrors []LoadError
	loading    []string

	files map[string]*fileState
}

func New() *Config {
	return &Config{
		allOn:    true,
		enabled:  make(map[string]bool),
		declared: make(map[string]bool),
		groups:   make(map[string][]string),
		values:   map[string]string{KeyNamespace: DefaultNamespace},
		files:    make(map[string]*fileState),
	}
}

// Clone copies the settings and load errors of c. In-source directives are
// per translation unit and are not copied.
func (c *Config) Clone() *Config {
	n := New()
	n.allOn = c.allOn
	for k, v := range c.enabled {
		n.enabled[k] = v
	}
	for k, v := range c.declared {
		n.declared[k] = v
	}
	for k, v := range c.groups {
		n.groups[k] = append([]string(nil), v...)
	}
	for k, v := range c.values {
		n.values[k] = v
	}
	for _, s := range c.fileGlobs {
		n.fileGlobs = append(n.fileGlobs, fileSuppression{s.tag, append([]string(nil), s.globs...)})
	}
	n.loadErrors = append([]LoadError(nil), c.loadErrors...)
	return n
}

// ProcessLines handles a whole configuration text: comments, "\" line
// continuations and one command per logical line.
func (c *Config) ProcessLines(text string) {
	var pending strings.Builder
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(line)
		c.Process(pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		c.Process(pending.String())
	}
}

// Process handles one configuration line.
func (c *Config) Process(line string) {
	words, err := shlex.Split(line)
	if err != nil {
		glog.V(1).Infof("config: ignoring %q: %v", line, err)
		return
	}
	if len(words) == 0 {
		return
	}
	cmd, args := words[0], words[1:]
	switch {
	case cmd == "namespace" && len(args) == 1:
		c.values[KeyNamespace] = args[0]
	case cmd == "all" && len(args) == 1 && isSwitch(args[0]):
		c.allOn = args[0] == "on"
	case cmd == "check" && len(args) == 2 && isSwitch(args[1]):
		c.Enable(args[0], args[1] == "on")
	case cmd == "group" && len(args) >= 2:
		c.AddGroup(args[0], args[1:]...)
	case cmd == "load" && len(args) == 1:
		c.load(args[0])
	case cmd == "set" && len(args) >= 1:
		c.values[args[0]] = strings.Join(args[1:], " ")
	case cmd == "append" && len(args) >= 1:
		c.values[args[0]] = joinNonEmpty(c.values[args[0]], strings.Join(args[1:], " "))
	case cmd == "prepend" && len(args) >= 1:
		c.values[args[0]] = joinNonEmpty(strings.Join(args[1:], " "), c.values[args[0]])
	case cmd == "suppress" && len(args) >= 2:
		for _, g := range args[1:] {
			if !doublestar.ValidatePattern(g) {
				glog.V(1).Infof("config: bad suppress pattern %q", g)
				return
			}
		}
		c.fileGlobs = append(c.fileGlobs, fileSuppression{args[0], args[1:]})
	default:
		glog.V(1).Infof("config: ignoring %q", line)
	}
}

func isSwitch(s string) bool {
	return s == "on" || s == "off"
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func (c *Config) load(path string) {
	if len(c.loading) > 0 && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(c.loading[len(c.loading)-1]), path)
	}
	if err := c.LoadFile(path); err != nil {
		glog.Warningf("config: %v", err)
	}
}

// Declare makes tag known to Tags without changing its enablement.
func (c *Config) Declare(tag string) {
	c.declared[tag] = true
}

// Enable turns tag, or every member of the group tag, on or off globally.
func (c *Config) Enable(tag string, on bool) {
	if tag == AllTags {
		c.allOn = on
		c.enabled = make(map[string]bool)
		c.invalidate()
		return
	}
	for _, t := range c.expandTags(tag, true) {
		c.enabled[t] = on
	}
}

// Enabled reports the global enablement of tag.
func (c *Config) Enabled(tag string) bool {
	if on, ok := c.enabled[tag]; ok {
		return on
	}
	return c.allOn
}

// AddGroup defines name, or appends to it, with the given members.
func (c *Config) AddGroup(name string, members ...string) {
	for _, m := range members {
		if !slices.Contains(c.groups[name], m) {
			c.groups[name] = append(c.groups[name], m)
		}
	}
	c.invalidate()
}

func (c *Config) IsGroup(tag string) bool {
	_, ok := c.groups[tag]
	return ok
}

// Members returns the direct members of a group in definition order.
func (c *Config) Members(group string) []string {
	return append([]string(nil), c.groups[group]...)
}

// Groups returns the group names, sorted.
func (c *Config) Groups() []string {
	names := make([]string, 0, len(c.groups))
	for g := range c.groups {
		names = append(names, g)
	}
	slices.Sort(names)
	return names
}

// Tags returns every non-group tag the configuration knows about, sorted.
func (c *Config) Tags() []string {
	set := map[string]bool{}
	for t := range c.declared {
		set[t] = true
	}
	for t := range c.enabled {
		set[t] = true
	}
	for _, ms := range c.groups {
		for _, m := range ms {
			set[m] = true
		}
	}
	var tags []string
	for t := range set {
		if !c.IsGroup(t) {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags
}

// expand resolves tag to the leaf tags it stands for. Groups are expanded
// depth first in member order; a group reached again while it is being
// expanded contributes nothing the second time.
func (c *Config) expand(tag string) []string {
	return c.expandTags(tag, false)
}

// expandTags is expand that also lists, when withGroups is set, every group
// reached, each before its members.
func (c *Config) expandTags(tag string, withGroups bool) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(t string)
	walk = func(t string) {
		if seen[t] {
			return
		}
		seen[t] = true
		members, ok := c.groups[t]
		if !ok || withGroups {
			out = append(out, t)
		}
		if !ok {
			return
		}
		for _, m := range members {
			walk(m)
		}
	}
	walk(tag)
	return out
}

// Global returns the configured value of key ignoring in-source overrides.
func (c *Config) Global(key string) string {
	return c.values[key]
}

// Namespace returns the configured enterprise namespace.
func (c *Config) Namespace() string {
	return c.values[KeyNamespace]
}

// Value returns the value of key in effect at where: the innermost in-source
// "set" enclosing where, or the global setting.
func (c *Config) Value(key string, where location.Location) string {
	if v, ok := c.scopedValue(key, where); ok {
		return v
	}
	return c.values[key]
}

// LoadErrors returns the configuration sources that failed to load.
func (c *Config) LoadErrors() []LoadError {
	return append([]LoadError(nil), c.loadErrors...)
}

// fileSuppressed reports whether a "suppress" line matches tag in file.
func (c *Config) fileSuppressed(tag, file string) bool {
	for _, s := range c.fileGlobs {
		if s.tag != tag && s.tag != AllTags && !slices.Contains(c.expand(s.tag), tag) {
			continue
		}
		for _, g := range s.globs {
			if ok, _ := doublestar.Match(g, file); ok {
				return true
			}
			if ok, _ := doublestar.Match(g, filepath.Base(file)); ok {
				return true
			}
		}
	}
	return false
}
