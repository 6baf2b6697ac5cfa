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

// Package excerpt prints the source lines around a diagnostic.
package excerpt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"naive.systems/bdeverify/cruleslib/diag"
)

// UTF8 is the charset that is never converted.
const UTF8 = "utf8"

// Decode converts b from charset to UTF-8. Unknown charsets are taken as
// UTF-8.
func Decode(b []byte, charset string) string {
	if charset == "" || charset == UTF8 {
		return string(b)
	}
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		glog.Warningf("unknown charset %q, taken as UTF-8: %v", charset, err)
		return string(b)
	}
	if e == nil {
		glog.Warningf("charset %q has no encoding, taken as UTF-8", charset)
		return string(b)
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), e.NewDecoder()))
	if err != nil {
		glog.Warningf("cannot decode %q text, taken as UTF-8: %v", charset, err)
		return string(b)
	}
	return string(out)
}

// Lines returns lines line-context through line+context of r, line marked
// with "> ".
func Lines(r io.Reader, line uint, context uint, charset string) (string, error) {
	lower := uint(1)
	if line > context {
		lower = line - context
	}
	upper := line + context
	var out strings.Builder
	scanner := bufio.NewScanner(r)
	var n uint
	for scanner.Scan() {
		n++
		if n < lower {
			continue
		}
		if n > upper {
			break
		}
		text := strings.TrimSuffix(Decode(scanner.Bytes(), charset), "\r")
		if n == line {
			fmt.Fprintf(&out, "> %d| %s\n", n, text)
		} else {
			fmt.Fprintf(&out, "%d| %s\n", n, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Code returns the excerpt of path around line.
func Code(path string, line uint, context uint, charset string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return Lines(file, line, context, charset)
}

// Print writes each diagnostic followed by the excerpt of its location.
// Diagnostics whose file cannot be read are written without one.
func Print(w io.Writer, diags []*diag.Diagnostic, context uint, charset string) {
	for _, d := range diags {
		fmt.Fprintln(w, d)
		if !d.Where.IsValid() {
			continue
		}
		code, err := Code(d.Where.File, d.Where.Line, context, charset)
		if err != nil {
			glog.Warningf("no excerpt for %v: %v", d.Where, err)
			continue
		}
		fmt.Fprint(w, code)
	}
}
