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

import "reflect"

// Attacher is implemented by attachment types that need to subscribe to
// events or read configuration when they are first created.
type Attacher interface {
	Attach(a *Analyzer)
}

// Attachment returns the instance of T owned by a, creating a zero T on
// first use. A *T that implements Attacher has Attach called once, right
// after it is stored, so Attach may itself look the attachment up.
func Attachment[T any](a *Analyzer) *T {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := a.attached[key]; ok {
		return v.(*T)
	}
	v := new(T)
	a.attached[key] = v
	if at, ok := any(v).(Attacher); ok {
		at.Attach(a)
	}
	return v
}

// Attachments returns the number of attachments created so far.
func (a *Analyzer) Attachments() int {
	return len(a.attached)
}
