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

package runner

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/text/message"

	"naive.systems/bdeverify/cruleslib/basic"
	"naive.systems/bdeverify/cruleslib/diag"
	"naive.systems/bdeverify/cruleslib/i18n"
	"naive.systems/bdeverify/cruleslib/results"
	"naive.systems/bdeverify/cruleslib/stats"
)

// Outcome is what the analysis of one translation unit produced.
type Outcome struct {
	Diagnostics []*diag.Diagnostic
	// Rewritten maps each file with fixes to its rewritten contents.
	Rewritten map[string][]byte
	// Diffs maps each file with fixes to a unified diff of the fixes.
	Diffs           map[string]string
	HandlerFailures int
}

// The task for Runner to run in parallels
type AnalyzerTask struct {
	Id      int
	TU      TranslationUnit
	Analyze func(tu TranslationUnit) (*Outcome, error)
}

type analyzerResult struct {
	id      int
	file    string
	outcome *Outcome
	err     error
}

// Collection merges the outcomes of every finished translation unit.
type Collection struct {
	Results *results.ResultsSet
	// Rewritten and Diffs keep the first rewrite of a file; a header fixed
	// from several translation units is rewritten once.
	Rewritten       map[string][]byte
	Diffs           map[string]string
	HandlerFailures int
	Interrupted     bool
}

// Files returns the rewritten files, sorted.
func (c *Collection) Files() []string {
	files := make([]string, 0, len(c.Rewritten))
	for f := range c.Rewritten {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func (c *Collection) merge(file string, o *Outcome) {
	c.Results.AddList(o.Diagnostics)
	c.HandlerFailures += o.HandlerFailures
	for f, content := range o.Rewritten {
		if old, ok := c.Rewritten[f]; ok {
			if string(old) != string(content) {
				glog.Warningf("%s: fixes from %s differ from an earlier translation unit, keeping the earlier ones", f, file)
			}
			continue
		}
		c.Rewritten[f] = content
		if d, ok := o.Diffs[f]; ok {
			c.Diffs[f] = d
		}
	}
}

// A goroutine workgroup to analyze translation units in parallel.
type ParaTaskRunner struct {
	showProgress   bool
	resultsDir     string
	printer        *message.Printer
	workerWg       sync.WaitGroup
	collectorWg    sync.WaitGroup
	jobs_chan      chan AnalyzerTask
	results_chan   chan analyzerResult
	sigs_exiting   chan bool
	sigs           chan os.Signal
	collection     *Collection
	errors         []error
	processPrinter *basic.CheckingProcessPrinter
	taskNums       int
}

func (pt *ParaTaskRunner) worker(jobs <-chan AnalyzerTask, results chan<- analyzerResult) {
	defer pt.workerWg.Done()
	for j := range jobs {
		if pt.showProgress {
			pt.processPrinter.StartAnalyzeTask(j.TU.File)
		}
		func() {
			defer func() {
				// recover from possible panic
				if r := recover(); r != nil {
					glog.Error("Recovered in analyze: ", r, string(debug.Stack()))
					results <- analyzerResult{id: j.Id, file: j.TU.File, err: errors.New("panic in analyze translation unit")}
				}
				if pt.showProgress {
					pt.processPrinter.FinishAnalyzeTask(j.TU.File)
					stats.WriteProgress(pt.resultsDir, stats.AC, basic.GetPercentString(pt.processPrinter.Finished(), pt.taskNums), pt.processPrinter.GetStartedAt())
				}
			}()
			outcome, err := j.Analyze(j.TU)
			results <- analyzerResult{id: j.Id, file: j.TU.File, outcome: outcome, err: err}
		}()
	}
}

// Create a new task runner and results collectors. numWorkers of zero
// means one worker per CPU.
func NewParaTaskRunner(numWorkers, taskNums int, showProgress bool, lang, resultsDir string) *ParaTaskRunner {
	printer := i18n.GetPrinter(lang)
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
		if showProgress {
			basic.PrintfWithTimeStamp("%s", printer.Sprintf(i18n.MsgUseCPUs, numWorkers))
		}
	}
	paraRunner := &ParaTaskRunner{
		showProgress: showProgress,
		resultsDir:   resultsDir,
		printer:      printer,
		jobs_chan:    make(chan AnalyzerTask, numWorkers),
		results_chan: make(chan analyzerResult, numWorkers),
		sigs_exiting: make(chan bool, 1),
		sigs:         make(chan os.Signal, 1),
		collection: &Collection{
			Results:   results.NewResultsSet(),
			Rewritten: make(map[string][]byte),
			Diffs:     make(map[string]string),
		},
		errors:         make([]error, taskNums),
		processPrinter: basic.NewCheckingProcessPrinter(taskNums, printer),
		taskNums:       taskNums,
	}
	for w := 0; w < numWorkers; w++ {
		paraRunner.workerWg.Add(1)
		go paraRunner.worker(paraRunner.jobs_chan, paraRunner.results_chan)
	}

	// if a signal is received, notify the loop to stop sending new tasks
	signal.Notify(paraRunner.sigs, syscall.SIGINT)
	paraRunner.collectorWg.Add(1)
	go paraRunner.collect()
	return paraRunner
}

func (pt *ParaTaskRunner) collect() {
	defer pt.collectorWg.Done()
	defer signal.Stop(pt.sigs)
	for job_result := range pt.results_chan {
		select {
		case <-pt.sigs:
			if pt.showProgress {
				basic.PrintfWithTimeStamp("%s", pt.printer.Sprintf(i18n.MsgInterrupted))
			}
			pt.collection.Interrupted = true
			// notify the task loop to exit
			pt.sigs_exiting <- true
			// keep draining so that busy workers can finish
			go func() {
				for range pt.results_chan {
				}
			}()
			return
		default:
		}
		// a failed unit may still carry what was found before the failure
		if job_result.outcome != nil {
			pt.collection.merge(job_result.file, job_result.outcome)
		}
		if job_result.err != nil {
			glog.Errorf("Analyze %v got error %v", job_result.file, job_result.err)
			if pt.showProgress {
				basic.PrintfWithTimeStamp("%s", pt.printer.Sprintf(i18n.MsgAnalysisFailed, job_result.file, job_result.err))
			}
		}
		if job_result.id >= 0 && job_result.id < len(pt.errors) {
			pt.errors[job_result.id] = job_result.err
		}
	}
}

// CheckSignalExiting checks for the SIGINT exiting signal. Once it has been
// received it returns the results collected so far, never nil, and the
// errors; otherwise it returns nil for both.
func (pt *ParaTaskRunner) CheckSignalExiting() (*Collection, []error) {
	select {
	case <-pt.sigs_exiting:
		// close the jobs_chan to let workers end
		close(pt.jobs_chan)
		go func() {
			pt.workerWg.Wait()
			close(pt.results_chan)
		}()
		pt.collectorWg.Wait()
		return pt.collection, pt.errors
	default:
		return nil, nil
	}
}

// Add a task to the task runner and start running the task.
func (pt *ParaTaskRunner) AddTask(task AnalyzerTask) {
	pt.jobs_chan <- task
}

// Wait until all the tasks workers and collectors are finished and all
// results are collected.
func (pt *ParaTaskRunner) CollectResultsAndErrors() (*Collection, []error) {
	go func() {
		pt.workerWg.Wait()
		close(pt.results_chan)
	}()
	close(pt.jobs_chan)
	pt.collectorWg.Wait()
	return pt.collection, pt.errors
}

// FirstError returns the first non-nil error of errs, annotated with how
// many translation units failed.
func FirstError(errs []error) error {
	var first error
	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = err
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%d translation unit(s) failed, first: %v", failed, first)
}
