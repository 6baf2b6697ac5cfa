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

package analyzer

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"naive.systems/bdeverify/cruleslib/filter"
)

// KeyGlobalPackages names the configuration value listing the packages and
// groups whose names live in the global namespace.
const KeyGlobalPackages = "global_packages"

const defaultGlobalPackages = "bsl"

var standardNamespaces = []string{"std", "bsl", "native_std"}

type component struct {
	name       string
	pkg        string
	group      string
	testDriver bool
	main       bool
}

// stem strips the directory, the extension, and a ".t" (test driver) or
// ".m" (application main) marker from a file name.
func stem(file string) (name string, testDriver, main bool) {
	name = filepath.Base(file)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case strings.HasSuffix(name, ".t"):
		return strings.TrimSuffix(name, ".t"), true, false
	case strings.HasSuffix(name, ".m"):
		return strings.TrimSuffix(name, ".m"), false, true
	}
	return name, false, false
}

// parseComponent derives the component identity of a toplevel file. For
// groups/bdl/bdlt/bdlt_date.t.cpp the component is bdlt_date, the package
// bdlt and the group bdl. A one-letter prefix such as "a_" or "z_" is part
// of the package name and is skipped when taking the group.
func parseComponent(toplevel string) *component {
	c := &component{}
	c.name, c.testDriver, c.main = stem(toplevel)

	rest := c.name
	prefix := ""
	if len(rest) > 2 && rest[1] == '_' {
		prefix, rest = rest[:2], rest[2:]
	}
	if i := strings.IndexByte(rest, '_'); i >= 0 {
		rest = rest[:i]
	}
	c.pkg = prefix + rest
	if len(rest) >= 3 {
		c.group = rest[:3]
	} else {
		c.group = rest
	}
	return c
}

// Toplevel returns the file the translation unit is analyzed for.
func (a *Analyzer) Toplevel() string {
	if a.toplevel != "" {
		return a.toplevel
	}
	return a.pp.MainFile()
}

func (a *Analyzer) component() *component {
	if a.comp != nil {
		return a.comp
	}
	top := a.Toplevel()
	if top == "" {
		return &component{}
	}
	a.comp = parseComponent(top)
	return a.comp
}

// Component returns the component name of the toplevel file.
func (a *Analyzer) Component() string {
	return a.component().name
}

func (a *Analyzer) Package() string {
	return a.component().pkg
}

func (a *Analyzer) Group() string {
	return a.component().group
}

// IsComponent reports whether file belongs to the toplevel component: its
// header, its implementation or its test driver.
func (a *Analyzer) IsComponent(file string) bool {
	if v, ok := a.components[file]; ok {
		return v
	}
	c := a.component()
	name, _, _ := stem(file)
	v := c.name != "" && name == c.name
	if a.comp != nil {
		a.components[file] = v
	}
	return v
}

func (a *Analyzer) IsComponentHeader(file string) bool {
	return a.IsComponent(file) && filter.IsHeaderFile(file)
}

// IsComponentSource reports whether file is the implementation file of the
// toplevel component. The test driver is not.
func (a *Analyzer) IsComponentSource(file string) bool {
	if !a.IsComponent(file) || !filter.IsCCFile(file) {
		return false
	}
	_, testDriver, _ := stem(file)
	return !testDriver
}

func (a *Analyzer) IsTestDriver() bool {
	return a.component().testDriver
}

// IsMain reports whether the toplevel file defines main: a test driver or
// an application main file.
func (a *Analyzer) IsMain() bool {
	c := a.component()
	return c.testDriver || c.main
}

// IsGlobalPackage reports whether the toplevel package or its group is
// listed in the global_packages value.
func (a *Analyzer) IsGlobalPackage() bool {
	c := a.component()
	list := a.config.Global(KeyGlobalPackages)
	if list == "" {
		list = defaultGlobalPackages
	}
	packages := strings.Fields(list)
	return c.pkg != "" && (slices.Contains(packages, c.pkg) || slices.Contains(packages, c.group))
}

// IsStandardNamespace reports whether name is, or is nested in, a namespace
// of the standard library.
func (a *Analyzer) IsStandardNamespace(name string) bool {
	name = strings.TrimPrefix(name, "::")
	for _, ns := range standardNamespaces {
		if name == ns || strings.HasPrefix(name, ns+"::") {
			return true
		}
	}
	return false
}

// IsSystemHeader reports whether file was included from a system include
// directory.
func (a *Analyzer) IsSystemHeader(file string) bool {
	return a.pp.IsSystem(file)
}
