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

package location

// Locations sorts by file first and then by position.
type Locations []Location

func (l Locations) Len() int {
	return len(l)
}

func (l Locations) Less(i, j int) bool {
	return Compare(l[i], l[j]) < 0
}

func (l Locations) Swap(i, j int) {
	l[i], l[j] = l[j], l[i]
}

// Ranges sorts ranges by their start and then by their end.
type Ranges []Range

func (r Ranges) Len() int {
	return len(r)
}

func (r Ranges) Less(i, j int) bool {
	if c := Compare(r[i].From, r[j].From); c != 0 {
		return c < 0
	}
	return Compare(r[i].To, r[j].To) < 0
}

func (r Ranges) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}
