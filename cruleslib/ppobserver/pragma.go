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

package ppobserver

import (
	"regexp"
	"strings"

	"naive.systems/bdeverify/cruleslib/config"
	"naive.systems/bdeverify/cruleslib/location"
)

const directiveBody = `(push|pop|([-+])\s*([[:alnum:]_.-]+|\*)|set\s+([[:alnum:]_.-]+)(?:\s+(.*?))?)`

var (
	pragmaRE  = regexp.MustCompile(`^\s*#\s*pragma\s+bde_verify\s+` + directiveBody + `\s*$`)
	commentRE = regexp.MustCompile(`^(?://|/\*)\s*BDE_VERIFY\s+pragma\s*:\s*` + directiveBody + `\s*(?:\*/)?\s*$`)
	includeRE = regexp.MustCompile(`#\s*(?:include|import|include_next)\s*[<"]([^>"]+)[>"]`)
)

// ParsePragma recognizes "#pragma bde_verify ..." directive text.
func ParsePragma(text string, where location.Location) (config.Directive, bool) {
	return parse(pragmaRE, text, where)
}

// ParseComment recognizes "// BDE_VERIFY pragma: ..." comment text.
func ParseComment(text string, where location.Location) (config.Directive, bool) {
	return parse(commentRE, text, where)
}

func parse(re *regexp.Regexp, text string, where location.Location) (config.Directive, bool) {
	m := re.FindStringSubmatch(strings.TrimRight(text, "\r\n"))
	if m == nil {
		return config.Directive{}, false
	}
	d := config.Directive{Where: where}
	switch {
	case m[1] == "push":
		d.Kind = config.Push
	case m[1] == "pop":
		d.Kind = config.Pop
	case m[2] == "-":
		d.Kind, d.Tag = config.Disable, m[3]
	case m[2] == "+":
		d.Kind, d.Tag = config.Enable, m[3]
	default:
		d.Kind, d.Key, d.Value = config.Set, m[4], strings.TrimSpace(m[5])
	}
	return d, true
}

// IncludedName returns the header named by an #include line.
func IncludedName(line string) (string, bool) {
	m := includeRE.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
