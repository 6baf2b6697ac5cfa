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

// Package cpumem bounds the CPU slots and memory held by concurrent
// translation-unit tasks. Memory is counted in KB; a zero memory total means
// memory is not limited.
package cpumem

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"naive.systems/bdeverify/cruleslib/basic"
)

type Pool struct {
	remainLock sync.Mutex
	remainCond *sync.Cond
	remainCpu  int
	remainMem  int
	totalCpu   int
	totalMem   int
}

func NewPool(cpu, mem int) *Pool {
	p := &Pool{remainCpu: cpu, remainMem: mem, totalCpu: cpu, totalMem: mem}
	p.remainCond = sync.NewCond(&p.remainLock)
	return p
}

var defaultPool = NewPool(1, 0)

func Init(cpu, mem int) {
	defaultPool = NewPool(cpu, mem)
}

func Acquire(cpu, mem int, taskName string) error {
	return defaultPool.Acquire(cpu, mem, taskName)
}

func Release(cpu, mem int) {
	defaultPool.Release(cpu, mem)
}

func GetTotalMem() int {
	return defaultPool.GetTotalMem()
}

// Clamp limits a memory request to what the pool can ever grant.
func (p *Pool) Clamp(mem int) int {
	if p.totalMem == 0 {
		return 0
	}
	if mem > p.totalMem {
		return p.totalMem
	}
	return mem
}

func (p *Pool) Acquire(cpu, mem int, taskName string) error {
	if p.totalMem == 0 {
		mem = 0
	}
	cpuExceedMessage := ""
	memExceedMessage := ""
	if cpu > p.totalCpu {
		cpuExceedMessage = fmt.Sprintf("%s aquired %d cpus, but total %d cpus available\n", taskName, cpu, p.totalCpu)
	}
	if mem > p.totalMem {
		memExceedMessage = fmt.Sprintf("%s aquired %d KB memory, but total %d KB memory available\n", taskName, mem, p.totalMem)
	}
	if cpuExceedMessage+memExceedMessage != "" {
		return fmt.Errorf("%s%s", cpuExceedMessage, memExceedMessage)
	}
	start := time.Now()
	p.remainLock.Lock()
	for p.remainCpu < cpu || p.remainMem < mem {
		p.remainCond.Wait()
	}
	p.remainCpu -= cpu
	p.remainMem -= mem
	p.remainLock.Unlock()
	elapsed := time.Since(start)
	glog.V(1).Infof("%s waited for [%s] to acquire resources", taskName, basic.FormatTimeDuration(elapsed))
	p.remainCond.Signal()
	return nil
}

func (p *Pool) Release(cpu, mem int) {
	if p.totalMem == 0 {
		mem = 0
	}
	p.remainLock.Lock()
	p.remainCpu += cpu
	p.remainMem += mem
	p.remainLock.Unlock()
	p.remainCond.Broadcast()
}

func (p *Pool) GetTotalMem() int {
	return p.totalMem
}
