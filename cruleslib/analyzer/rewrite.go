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
	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/location"
)

// GetSource returns the text of r, or "" when r cannot be read.
func (a *Analyzer) GetSource(r location.Range) string {
	text, err := a.sources.Text(r)
	if err != nil {
		glog.V(1).Infof("analyzer: GetSource %v: %v", r, err)
		return ""
	}
	return text
}

// ReplaceText proposes replacing r by text. A rejected edit is reported as
// a note and leaves the rewrite buffer unchanged.
func (a *Analyzer) ReplaceText(r location.Range, text string) error {
	err := a.rewriter.Replace(r, text)
	if err != nil {
		a.Report(r.From, TagRewrite, CodeFixConflict, "Cannot apply fix: %0", Always(), WithSeverity(diag.Note)).
			Arg(err.Error()).
			Range(r)
	}
	return err
}

func (a *Analyzer) InsertText(at location.Location, text string) error {
	return a.ReplaceText(location.Point(at), text)
}

func (a *Analyzer) RemoveText(r location.Range) error {
	return a.ReplaceText(r, "")
}
