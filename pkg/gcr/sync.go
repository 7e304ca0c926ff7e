/*
   NibConv - Commodore 1541 GCR disk image converter
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of NibConv.

   NibConv is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   NibConv is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with NibConv. If not, see <http://www.gnu.org/licenses/>.
*/

package gcr

// Run is a sequence of identical bytes within track data.
type Run struct {
	Pos int
	Len int
}

//
func (r Run) End() int {
	return r.Pos + r.Len
}

// FindRuns returns all runs of bytes for which match is true, with a length
// of at least minLen.
func FindRuns(data []byte, match func(b byte) bool, minLen int) []Run {

	var ret []Run

	for ix := 0; ix < len(data); {
		if !match(data[ix]) {
			ix++
			continue
		}
		start := ix
		for ix < len(data) && data[ix] == data[start] {
			ix++
		}
		if ix-start >= minLen {
			ret = append(ret, Run{Pos: start, Len: ix - start})
		}
	}

	return ret
}

// SyncRuns returns all sync marks in data. Since no valid GCR sequence holds
// more than eight consecutive one bits, two 0xff bytes in a row can only be
// part of a sync.
func SyncRuns(data []byte) []Run {
	return FindRuns(data, isSync, 2)
}

// HasSync tells whether data contains at least one sync mark.
func HasSync(data []byte) bool {
	for ix := 1; ix < len(data); ix++ {
		if data[ix] == SyncByte && data[ix-1] == SyncByte {
			return true
		}
	}
	return false
}

//
func isSync(b byte) bool {
	return b == SyncByte
}

// circular returns data with enough of its beginning appended to decode a
// sector that wraps around the end
func circular(data []byte) []byte {
	ext := SectorSize + 2*maxHeaderGap
	if ext > len(data) {
		ext = len(data)
	}
	ret := make([]byte, len(data)+ext)
	copy(ret, data)
	copy(ret[len(data):], data[:ext])
	return ret
}

// syncEnds returns positions of the first byte after each sync within the
// first n bytes of a circular buffer; positions 0 and 1 show up as n and n+1
func syncEnds(buf []byte, n int) []int {
	var ret []int
	for p := 2; p < n+2 && p < len(buf); p++ {
		if isSyncEnd(buf, p) {
			ret = append(ret, p)
		}
	}
	return ret
}

//
func nextSyncEnd(buf []byte, from, to int) int {
	if from < 2 {
		from = 2
	}
	for p := from; p < to && p < len(buf); p++ {
		if isSyncEnd(buf, p) {
			return p
		}
	}
	return -1
}

//
func isSyncEnd(buf []byte, p int) bool {
	return buf[p] != SyncByte && buf[p-1] == SyncByte && buf[p-2] == SyncByte
}
