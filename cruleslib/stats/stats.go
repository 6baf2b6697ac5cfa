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

package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/glog"

	"naive.systems/bdeverify/atomic"
	"naive.systems/bdeverify/cruleslib/diag"
)

// analysis stages
const (
	CFG int = iota // Configuration loading
	AST            // AST and preprocessor input preparation
	AC             // Analysis check
	END
)

type Progress struct {
	StageID   int       `json:"stage_id"`
	DoneRatio string    `json:"done_ratio"`
	StartedAt time.Time `json:"started_at"`
}

type SeverityCount struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Remark  int `json:"remark"`
	Note    int `json:"note"`
}

// Summary is the content of the stats metadata file.
type Summary struct {
	Severity SeverityCount  `json:"severity"`
	Tags     map[string]int `json:"tags"`
	Failing  int            `json:"failing"`
}

func WriteTUCount(resultDir string, n int) {
	path := filepath.Join(resultDir, "tu.nsa_metadata")
	if err := atomic.Write(path, []byte(strconv.Itoa(n))); err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func WriteProgress(resultDir string, stageID int, doneRatio string, startedAt time.Time) {
	// skip writing it if resultDir does not exist
	if _, err := os.Stat(resultDir); os.IsNotExist(err) {
		glog.Warningf("result dir %s does not exist", resultDir)
		return
	}
	path := filepath.Join(resultDir, "progress.nsa_metadata")
	progress, err := json.Marshal(Progress{StageID: stageID, DoneRatio: doneRatio, StartedAt: startedAt})
	if err != nil {
		glog.Errorf("failed to marshal json stageID %d and doneRatio %s: %v", stageID, doneRatio, err)
		return
	}
	if err := atomic.Write(path, progress); err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func AccumulateBySeverity(cnt *SeverityCount, s diag.Severity, id string) {
	switch s {
	case diag.Error:
		cnt.Error++
	case diag.Warning:
		cnt.Warning++
	case diag.Remark:
		cnt.Remark++
	case diag.Note:
		cnt.Note++
	default:
		glog.Warningf("undefined severity of result %s", id)
	}
}

func Summarize(diags []*diag.Diagnostic) Summary {
	sum := Summary{Tags: make(map[string]int)}
	for _, d := range diags {
		AccumulateBySeverity(&sum.Severity, d.Severity, d.ID)
		sum.Tags[d.Tag]++
		if d.Severity.Failing() {
			sum.Failing++
		}
	}
	return sum
}

func GetSummaryBytes(diags []*diag.Diagnostic) ([]byte, error) {
	b, err := json.Marshal(Summarize(diags))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %v", err)
	}
	return b, nil
}

func CountSeverityAndWrite(diags []*diag.Diagnostic, resultDir string) {
	statsBytes, err := GetSummaryBytes(diags)
	if err != nil {
		glog.Errorf("failed to get severity count bytes: %v", err)
		return
	}
	statsFile := filepath.Join(resultDir, "severity_stats.nsa_metadata")
	if err := atomic.Write(statsFile, statsBytes); err != nil {
		glog.Errorf("failed to write to file %s: %v", statsFile, err)
	}
}
