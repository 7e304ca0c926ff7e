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

import (
	"bytes"

	"github.com/xelalexv/nibconv/pkg/disk"
)

// number of bytes compared when looking for the repetition of a track
const cycleMatchLength = 256

// FindCycle locates one revolution within raw track data, by looking for
// the repetition of data at a distance between min and max bytes. Returned
// are start and stop (exclusive) of the cycle. If no repetition is found,
// the data is either taken as one revolution as a whole, or, if longer than
// max, cut to nominal length.
func FindCycle(data []byte, min, max int) (int, int) {

	for start := 0; start+min+cycleMatchLength <= len(data); start++ {

		window := data[start : start+cycleMatchLength]
		if isUniform(window) {
			continue
		}

		for l := min; l <= max && start+l+cycleMatchLength <= len(data); l++ {
			if bytes.Equal(window, data[start+l:start+l+cycleMatchLength]) {
				return start, start + l
			}
		}
		break
	}

	if len(data) <= max {
		return 0, len(data)
	}
	return 0, (min + max) / 2
}

// ExtractTrack copies one revolution of the raw track in src to dst, rotated
// so that it starts at the alignment point. If force is not disk.AlignNone,
// that alignment is used if the track offers it. The remainder of dst is
// filled with idle bytes. Returned are the length of the revolution and the
// alignment that was applied.
func ExtractTrack(dst, src []byte, force disk.Alignment, min,
	max int) (int, disk.Alignment) {

	start, stop := FindCycle(src, min, max)
	cycle := make([]byte, stop-start)
	copy(cycle, src[start:stop])

	pos, align := alignmentPoint(cycle, force)

	n := copy(dst, cycle[pos:])
	n += copy(dst[n:], cycle[:pos])
	for ix := n; ix < len(dst); ix++ {
		dst[ix] = disk.IdleByte
	}

	if n < len(cycle) {
		return n, align
	}
	return len(cycle), align
}

// alignmentPoint determines where within a cycle the track should start
func alignmentPoint(cycle []byte, force disk.Alignment) (int, disk.Alignment) {

	finders := []struct {
		align disk.Alignment
		find  func([]byte) int
	}{
		{disk.AlignSec0, findSector0},
		{disk.AlignLongSync, findLongestSync},
		{disk.AlignBadGCR, findBadGCREnd},
		{disk.AlignGap, findLongestGapEnd},
	}

	if force != disk.AlignNone {
		if force == disk.AlignRaw {
			return 0, disk.AlignRaw
		}
		for _, f := range finders {
			if f.align == force {
				if pos := f.find(cycle); pos >= 0 {
					return pos, force
				}
			}
		}
	}

	// automatic: sector 0 or longest sync for formatted tracks, end of bad
	// GCR for tracks without any sync, raw as last resort
	for _, f := range finders[:3] {
		if pos := f.find(cycle); pos >= 0 {
			return pos, f.align
		}
	}

	return 0, disk.AlignRaw
}

// findSector0 returns the start of the sync in front of the first header
// for sector 0
func findSector0(cycle []byte) int {

	buf := circular(cycle)

	for _, p := range syncEnds(buf, len(cycle)) {
		header, ok := decodeAt(buf, p, HeaderLength)
		if ok && header[0] == HeaderBlockID && header[2] == 0 {
			start := p - 1
			for start > 0 && buf[start-1] == SyncByte {
				start--
			}
			return start % len(cycle)
		}
	}

	return -1
}

//
func findLongestSync(cycle []byte) int {
	return longest(SyncRuns(cycle), false)
}

//
func findBadGCREnd(cycle []byte) int {
	if HasSync(cycle) {
		return -1
	}
	runs := FindRuns(cycle, IsBadGCR, 1)
	if pos := longest(runs, true); pos >= 0 {
		return pos % len(cycle)
	}
	return -1
}

//
func findLongestGapEnd(cycle []byte) int {
	gaps := GapRuns(cycle, 1)
	if pos := longest(gaps, true); pos >= 0 {
		return pos % len(cycle)
	}
	return -1
}

// longest returns start or end position of the longest run, or -1 if there
// are no runs
func longest(runs []Run, end bool) int {
	best := -1
	for ix, r := range runs {
		if best < 0 || r.Len > runs[best].Len {
			best = ix
		}
	}
	if best < 0 {
		return -1
	}
	if end {
		return runs[best].End()
	}
	return runs[best].Pos
}

// GapRuns returns the runs of gap bytes directly in front of each sync,
// having at least minLen bytes.
func GapRuns(data []byte, minLen int) []Run {

	var ret []Run

	for _, s := range SyncRuns(data) {
		if s.Pos == 0 {
			continue
		}
		b := data[s.Pos-1]
		start := s.Pos - 1
		for start > 0 && data[start-1] == b {
			start--
		}
		if n := s.Pos - start; n >= minLen {
			ret = append(ret, Run{Pos: start, Len: n})
		}
	}

	return ret
}

//
func isUniform(data []byte) bool {
	for _, b := range data {
		if b != data[0] {
			return false
		}
	}
	return true
}
