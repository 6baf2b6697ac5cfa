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
This package should not import any other package of this module, so that
every layer can use it.
*/
package basic

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/text/message"
)

type combinedOutput struct {
	Output []byte
	Error  error
}

func PrintfWithTimeStamp(format string, arg ...any) {
	prefix := fmt.Sprintf("%v ", time.Now().Format("2006-01-02 15:04:05"))
	message := fmt.Sprintf(prefix+format, arg...)
	fmt.Println(message)
	glog.Info(message)
}

func GetPercentString(v1, v2 int) string {
	if v2 == 0 {
		return "100%"
	}
	return fmt.Sprintf("%d%%", (v1*100)/v2)
}

// FormatTimeDuration renders d in seconds with at most millisecond
// precision and no trailing zeros, e.g. "3s" or "1.25s".
func FormatTimeDuration(d time.Duration) string {
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%ds", s)
	}
	frac := fmt.Sprintf("%03d", ms)
	return fmt.Sprintf("%d.%ss", s, strings.TrimRight(frac, "0"))
}

// print checking process serialized, goroutine safe
type CheckingProcessPrinter struct {
	mutex          sync.Mutex
	startedAt      time.Time
	timeElapsed    map[string]time.Time
	startedTaskNum int
	finishedNum    int
	totalTaskNum   int
	printer        *message.Printer
}

func NewCheckingProcessPrinter(totalTaskNum int, printer *message.Printer) *CheckingProcessPrinter {
	return &CheckingProcessPrinter{
		totalTaskNum: totalTaskNum,
		timeElapsed:  make(map[string]time.Time),
		startedAt:    time.Now(),
		printer:      printer,
	}
}

// Called before a translation unit is analyzed
func (c *CheckingProcessPrinter) StartAnalyzeTask(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.startedTaskNum++
	PrintfWithTimeStamp("%s", c.printer.Sprintf("Start analyzing %s (%v/%v)", name, c.startedTaskNum, c.totalTaskNum))
	c.timeElapsed[name] = time.Now()
}

// Called after a translation unit is analyzed
func (c *CheckingProcessPrinter) FinishAnalyzeTask(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	elapsed := time.Since(c.timeElapsed[name])
	delete(c.timeElapsed, name)
	c.finishedNum++
	percent := GetPercentString(c.finishedNum, c.totalTaskNum)
	PrintfWithTimeStamp("%s", c.printer.Sprintf("Analysis of %s completed (%s, %v/%v) [%s]", name, percent, c.finishedNum, c.totalTaskNum, FormatTimeDuration(elapsed)))
}

func (c *CheckingProcessPrinter) Finished() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.finishedNum
}

func (c *CheckingProcessPrinter) GetStartedAt() time.Time {
	return c.startedAt
}

// CombinedOutput runs c and returns its combined output. The process is
// killed if it runs longer than timeout; zero means no limit.
func CombinedOutput(c *exec.Cmd, taskName string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		return c.CombinedOutput()
	}
	result := make(chan combinedOutput, 1)
	go func() {
		output, err := c.CombinedOutput()
		result <- combinedOutput{Output: output, Error: err}
	}()
	select {
	case <-time.After(timeout):
		if c.Process != nil {
			if err := c.Process.Kill(); err != nil {
				return nil, fmt.Errorf("failed to kill %v: %v", c.Process.Pid, err)
			}
		}
		return nil, fmt.Errorf("%v timed out: over %v", taskName, timeout)
	case r := <-result:
		return r.Output, r.Error
	}
}

// Output is CombinedOutput with the standard error kept apart, for tools
// whose standard output is data.
func Output(c *exec.Cmd, taskName string, timeout time.Duration) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	if timeout <= 0 {
		err = c.Run()
		return outBuf.Bytes(), errBuf.Bytes(), err
	}
	if err := c.Start(); err != nil {
		return nil, nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- c.Wait()
	}()
	select {
	case <-time.After(timeout):
		if err := c.Process.Kill(); err != nil {
			return nil, nil, fmt.Errorf("failed to kill %v: %v", c.Process.Pid, err)
		}
		<-done
		return nil, errBuf.Bytes(), fmt.Errorf("%v timed out: over %v", taskName, timeout)
	case err := <-done:
		return outBuf.Bytes(), errBuf.Bytes(), err
	}
}

func ConvertRelativePathToAbsolute(dir, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	fullpath := filepath.Join(dir, path)
	// Sanity Check: This file should exist.
	if _, err := os.Stat(fullpath); errors.Is(err, os.ErrNotExist) {
		return path, fmt.Errorf("convertRelativePathToAbsolute: %v", err)
	}
	return fullpath, nil
}
