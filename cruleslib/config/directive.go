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
	"fmt"

	"naive.systems/bdeverify/cruleslib/location"
)

// DirectiveKind is the variant of an in-source directive.
type DirectiveKind uint8

const (
	Push DirectiveKind = iota
	Pop
	// Disable is "-TAG": suppress TAG from here on.
	Disable
	// Enable is "+TAG": stop suppressing TAG from here on.
	Enable
	// Set is "set KEY VALUE...".
	Set
)

func (k DirectiveKind) String() string {
	switch k {
	case Push:
		return "push"
	case Pop:
		return "pop"
	case Disable:
		return "-"
	case Enable:
		return "+"
	case Set:
		return "set"
	}
	return fmt.Sprintf("DirectiveKind(%d)", k)
}

// Directive is one parsed in-source pragma anchored at Where. Tag is set for
// Enable and Disable, Key and Value for Set.
type Directive struct {
	Kind  DirectiveKind
	Tag   string
	Key   string
	Value string
	Where location.Location
}

func (d Directive) String() string {
	switch d.Kind {
	case Disable, Enable:
		return fmt.Sprintf("%s%s@%v", d.Kind, d.Tag, d.Where)
	case Set:
		return fmt.Sprintf("set %s %q@%v", d.Key, d.Value, d.Where)
	}
	return fmt.Sprintf("%s@%v", d.Kind, d.Where)
}

// AllTags is the tag that addresses every check at once.
const AllTags = "*"

// DefectKind classifies a push/pop nesting error.
type DefectKind uint8

const (
	UnmatchedPop DefectKind = iota
	UnclosedPush
)

// StackDefect is one structural violation found by CheckStack.
type StackDefect struct {
	Kind  DefectKind
	Where location.Location
}

func (d StackDefect) String() string {
	if d.Kind == UnmatchedPop {
		return fmt.Sprintf("pop without matching push at %v", d.Where)
	}
	return fmt.Sprintf("push without matching pop at %v", d.Where)
}

// LoadError records a configuration source that could not be read. Loading
// continues with the remaining lines.
type LoadError struct {
	Path  string
	Where string
	Err   error
}

func (e LoadError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("%s: load %s: %v", e.Where, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}
