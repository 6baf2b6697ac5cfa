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

package cpumem

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2, 100)
	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(1, 40, "task"); err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			atomic.AddInt32(&running, -1)
			p.Release(1, 40)
		}()
	}
	wg.Wait()
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds 2", peak)
	}
}

func TestAcquireTooMuch(t *testing.T) {
	p := NewPool(1, 10)
	if err := p.Acquire(2, 0, "big"); err == nil {
		t.Errorf("expected an error for too many cpus")
	}
	if err := p.Acquire(1, 11, "big"); err == nil {
		t.Errorf("expected an error for too much memory")
	}
	if got := p.Clamp(11); got != 10 {
		t.Errorf("Clamp(11) = %d, expected 10", got)
	}
}

func TestUnlimitedMemory(t *testing.T) {
	Init(1, 0)
	if err := Acquire(1, 1<<30, "huge"); err != nil {
		t.Fatalf("memory should not be limited: %v", err)
	}
	Release(1, 1<<30)
	if GetTotalMem() != 0 {
		t.Errorf("GetTotalMem() = %d", GetTotalMem())
	}
}
