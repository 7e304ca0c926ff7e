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

package disk

import (
	"fmt"
)

// Geometry is the half-track range processed during a run. Inc is 2 when
// only whole tracks are handled, 1 when half-tracks are included. Readers
// settle Inc from the input image, after that it must not change.
type Geometry struct {
	Start int
	End   int
	Inc   int
}

//
func NewGeometry() Geometry {
	return Geometry{Start: FirstHalfTrack, End: MaxHalfTracks, Inc: 2}
}

//
func (g Geometry) Validate() error {
	if g.Inc != 1 && g.Inc != 2 {
		return fmt.Errorf("invalid track increment: %d", g.Inc)
	}
	if g.Start < FirstHalfTrack || g.End > MaxHalfTracks || g.Start > g.End {
		return fmt.Errorf("invalid half-track range: %d - %d", g.Start, g.End)
	}
	return nil
}

// Adjust returns the geometry resulting from an image that holds count
// track entries, starting at the first half-track. Up to 42 entries are taken
// as whole tracks, more than that means half-tracks are present.
func (g Geometry) Adjust(count int) Geometry {
	if count <= MaxTracks {
		return g.Settle(2, count*2)
	}
	return g.Settle(1, FirstHalfTrack+count-1)
}

// Settle fixes the track step to inc and limits End to half-track last.
func (g Geometry) Settle(inc, last int) Geometry {
	g.Inc = inc
	if last < g.End {
		g.End = last
	}
	if g.Inc == 2 && g.Start%2 != 0 {
		g.Start++
	}
	return g
}

// Entries is the number of half-tracks from the first half-track through
// End, stepping by Inc. This is what gets stored in a NIB or NB2 image.
func (g Geometry) Entries() int {
	if g.End < FirstHalfTrack {
		return 0
	}
	return (g.End-FirstHalfTrack)/g.Inc + 1
}

//
func (g Geometry) String() string {
	return fmt.Sprintf("%.1f - %.1f step %.1f",
		float32(g.Start)/2, float32(g.End)/2, float32(g.Inc)/2)
}
