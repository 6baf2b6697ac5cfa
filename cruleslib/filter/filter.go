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
This package should not import any packages of the analyzer to avoid
recursive import.
*/
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/results"
)

var KSupportImplementationSuffixs = []string{"c", "cpp", "cc", "cxx", "c++", "C"}
var KHeaderSuffixs = []string{"h", "hpp", "hh", "hxx", "h++", "H", "inl"}

func hasSuffix(path string, suffixs []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, suffix := range suffixs {
		if ext == suffix {
			return true
		}
	}
	return false
}

func IsCCFile(path string) bool {
	return hasSuffix(path, KSupportImplementationSuffixs)
}

func IsHeaderFile(path string) bool {
	return hasSuffix(path, KHeaderSuffixs)
}

// IgnoreResults drops the diagnostics located in files matching any of the
// doublestar patterns. Malformed patterns are logged and skipped.
func IgnoreResults(set *results.ResultsSet, ignoreDirPatterns []string) int {
	var patterns []string
	for _, p := range ignoreDirPatterns {
		if !doublestar.ValidatePattern(p) {
			glog.Error("malformed ignore_dir pattern ", p)
			continue
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return 0
	}
	before := set.Len()
	set.Filter(func(d *diag.Diagnostic) bool {
		path := filepath.ToSlash(d.Where.File)
		for _, p := range patterns {
			if matched, _ := doublestar.Match(p, path); matched {
				return false
			}
		}
		return true
	})
	return before - set.Len()
}

// DeleteExceedResults keeps at most maxReportNum diagnostics per tag, in
// reporting order. Tags without a limit are kept.
func DeleteExceedResults(set *results.ResultsSet, maxReportNum map[string]int) int {
	if len(maxReportNum) == 0 {
		return 0
	}
	seen := make(map[string]int)
	before := set.Len()
	set.Filter(func(d *diag.Diagnostic) bool {
		limit, exist := maxReportNum[d.Tag]
		if !exist {
			return true
		}
		seen[d.Tag]++
		return seen[d.Tag] <= limit
	})
	return before - set.Len()
}

func DeleteResultsWithCertainSuffixs(set *results.ResultsSet, suffix []string) int {
	suffixs := make(map[string]struct{})
	for _, str := range suffix {
		suffixs[str] = struct{}{}
	}
	before := set.Len()
	set.Filter(func(d *diag.Diagnostic) bool {
		_, ok := suffixs[filepath.Ext(d.Where.File)]
		return !ok
	})
	return before - set.Len()
}
