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

// Package diag defines the diagnostics checks emit and the sink they are
// delivered to.
package diag

import (
	"fmt"
	"strconv"
	"strings"

	"naive.systems/bdeverify/cruleslib/location"
)

type Severity uint8

const (
	Note Severity = iota
	Remark
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Remark:
		return "remark"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// Failing reports whether diagnostics of this severity fail a run.
func (s Severity) Failing() bool {
	return s >= Warning
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "note":
		return Note, nil
	case "remark":
		return Remark, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Warning, fmt.Errorf("unknown severity %q", s)
}

// FixIt replaces the text of Range with Text. An empty range inserts.
type FixIt struct {
	Range location.Range
	Text  string
}

type Diagnostic struct {
	ID       string
	Where    location.Location
	Tag      string
	Code     string
	Message  string
	Args     []any
	Severity Severity
	Always   bool
	Ranges   []location.Range
	Fixes    []FixIt
	Notes    []*Diagnostic
}

// Text returns the message with its arguments substituted.
func (d *Diagnostic) Text() string {
	return Format(d.Message, d.Args)
}

func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %v: ", d.Where, d.Severity)
	if d.Code != "" {
		b.WriteString(d.Code)
		b.WriteString(": ")
	}
	b.WriteString(d.Text())
	for _, n := range d.Notes {
		b.WriteString("\n")
		b.WriteString(n.String())
	}
	return b.String()
}

type Sink interface {
	Report(d *Diagnostic)
}

type SinkFunc func(d *Diagnostic)

func (f SinkFunc) Report(d *Diagnostic) {
	f(d)
}

// Format substitutes clang-style placeholders: %N is argument N, %sN is "s"
// unless argument N is 1, %select{a|b|...}N picks by the integer value of
// argument N, and %% is a percent sign. Placeholders without an argument
// are left as they are.
func Format(msg string, args []any) string {
	if !strings.Contains(msg, "%") {
		return msg
	}
	var b strings.Builder
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if c != '%' || i+1 >= len(msg) {
			b.WriteByte(c)
			continue
		}
		rest := msg[i+1:]
		switch {
		case rest[0] == '%':
			b.WriteByte('%')
			i++
		case isDigit(rest[0]):
			n, w := number(rest)
			if n < len(args) {
				b.WriteString(plain(args[n]))
			} else {
				b.WriteString(msg[i : i+1+w])
			}
			i += w
		case rest[0] == 's' && len(rest) > 1 && isDigit(rest[1]):
			n, w := number(rest[1:])
			if n < len(args) {
				if v, ok := integer(args[n]); !ok || v != 1 {
					b.WriteByte('s')
				}
			} else {
				b.WriteString(msg[i : i+2+w])
			}
			i += 1 + w
		case strings.HasPrefix(rest, "select{"):
			end := strings.IndexByte(rest, '}')
			if end < 0 || end+1 >= len(rest) || !isDigit(rest[end+1]) {
				b.WriteByte(c)
				continue
			}
			choices := strings.Split(rest[len("select{"):end], "|")
			n, w := number(rest[end+1:])
			whole := msg[i : i+1+end+1+w]
			if n < len(args) {
				if v, ok := integer(args[n]); ok && v >= 0 && v < int64(len(choices)) {
					b.WriteString(choices[v])
				} else {
					b.WriteString(whole)
				}
			} else {
				b.WriteString(whole)
			}
			i += end + 1 + w
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func number(s string) (int, int) {
	w := 0
	for w < len(s) && isDigit(s[w]) {
		w++
	}
	n, _ := strconv.Atoi(s[:w])
	return n, w
}

func integer(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func plain(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
