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

package track

import (
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

// MinSyncLength is the length in bytes syncs get reduced to. Only 10 bits
// are technically required, but less than 24 is too short for some loaders,
// including the CBM DOS.
const MinSyncLength = 3

// MinGapLength is the length in bytes sector gaps get reduced to.
const MinGapLength = 4

// Strategy is a way of making a track shorter.
type Strategy int

// strategies in the order they are applied
const (
	ReduceSync Strategy = iota
	ReduceBadGCR
	ReduceGaps
	Truncate
)

var strategyNames = []string{"rsync", "rbadgcr", "rgaps", "trunc"}

//
func (s Strategy) String() string {
	return strategyNames[s]
}

// Reducer shrinks raw tracks that exceed the capacity of a target format.
// Each strategy can be switched off individually.
type Reducer struct {
	Sync     bool
	BadGCR   bool
	Gaps     bool
	Truncate bool
}

// NewReducer returns a reducer with all strategies enabled.
func NewReducer() *Reducer {
	return &Reducer{Sync: true, BadGCR: true, Gaps: true, Truncate: true}
}

// Result describes the outcome of a reduction.
type Result struct {
	Length  int
	Removed [4]int
}

// Truncated tells whether the end of the track had to be cut off. This is
// the only reduction that may destroy sectors.
func (r *Result) Truncated() bool {
	return r.Removed[Truncate] > 0
}

// Plan returns the strategies that apply to a track of the given density,
// in the order they are tried. Sync reduction is left out for tracks
// without sync.
func (r *Reducer) Plan(density byte) []Strategy {

	var ret []Strategy

	if r.Sync && density&disk.BMNoSync == 0 {
		ret = append(ret, ReduceSync)
	}
	if r.BadGCR {
		ret = append(ret, ReduceBadGCR)
	}
	if r.Gaps {
		ret = append(ret, ReduceGaps)
	}
	if r.Truncate {
		ret = append(ret, Truncate)
	}

	return ret
}

// Reduce shrinks the first length bytes of data down to at most target bytes,
// applying the planned strategies one after the other until the track fits.
// Data is modified in place, bytes freed at the end are set to idle. An
// empty track without sync is filled with zero bytes instead, simulating a
// blank surface rather than a never written one.
func (r *Reducer) Reduce(data []byte, length int, density byte, target int) Result {

	res := Result{Length: length}

	if length == 0 && density&disk.BMNoSync != 0 {
		for ix := range data {
			data[ix] = 0x00
		}
		res.Length = target
		if res.Length > len(data) {
			res.Length = len(data)
		}
		return res
	}

	for _, s := range r.Plan(density) {

		if res.Length <= target {
			break
		}

		before := res.Length
		res.Length = apply(s, data, res.Length, target)
		res.Removed[s] += before - res.Length

		if s == Truncate && res.Removed[s] > 0 {
			log.Warnf("truncated track by %d bytes", res.Removed[s])
		} else {
			log.Tracef("%s: %d", s, res.Removed[s])
		}
	}

	return res
}

//
func apply(s Strategy, data []byte, length, target int) int {

	switch s {

	case ReduceSync:
		return shrinkRuns(data, length, target,
			gcr.SyncRuns(data[:length]), MinSyncLength)

	case ReduceBadGCR:
		return shrinkRuns(data, length, target,
			gcr.FindRuns(data[:length], gcr.IsBadGCR, 1), 0)

	case ReduceGaps:
		return shrinkRuns(data, length, target,
			gcr.GapRuns(data[:length], MinGapLength+1), MinGapLength)

	case Truncate:
		for ix := target; ix < length; ix++ {
			data[ix] = disk.IdleByte
		}
		return target
	}

	return length
}

// shrinkRuns removes bytes from the given runs until length reaches target
// or no run can be shortened any further. Bytes are taken one at a time from
// each run in turn, so that all runs shrink evenly. Runs must be sorted and
// must not overlap.
func shrinkRuns(data []byte, length, target int, runs []gcr.Run, min int) int {

	excess := length - target
	cut := make([]int, len(runs))

	for excess > 0 {
		progress := false
		for ix, r := range runs {
			if excess == 0 {
				break
			}
			if r.Len-cut[ix] > min {
				cut[ix]++
				excess--
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	out, in := 0, 0
	for ix, r := range runs {
		out += copy(data[out:], data[in:r.Pos])
		in = r.Pos + cut[ix]
	}
	out += copy(data[out:], data[in:length])

	for ix := out; ix < length; ix++ {
		data[ix] = disk.IdleByte
	}

	return out
}
