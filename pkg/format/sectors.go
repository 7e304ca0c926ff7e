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

package format

import (
	"fmt"
	"strings"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

// DecodeTrack decodes all sectors of logical track t from one revolution of
// GCR data.
func DecodeTrack(cycle []byte, t int, id [2]byte) []disk.Sector {
	ret := make([]disk.Sector, disk.SectorCount(t))
	for s := range ret {
		ret[s].Track = t
		ret[s].Sector = s
		ret[s].Data, ret[s].Error = gcr.DecodeSector(cycle, t, s, id)
	}
	return ret
}

// CountErrors returns the number of defective sectors in one revolution of
// logical track t.
func CountErrors(cycle []byte, t int, id [2]byte) int {
	ret := 0
	for _, s := range DecodeTrack(cycle, t, id) {
		if !s.OK() {
			ret++
		}
	}
	return ret
}

// ErrorString lists the defective sectors as E<code>S<sector> entries.
func ErrorString(sectors []disk.Sector) string {
	var b strings.Builder
	for _, s := range sectors {
		if !s.OK() {
			fmt.Fprintf(&b, " E%dS%d", s.Error, s.Sector)
		}
	}
	return strings.TrimSpace(b.String())
}

// TrackCycle returns one revolution of the data held for a track. Raw
// captures filling the whole slot are searched for their cycle using the
// window of logical track t's native zone, anything shorter already is a
// single revolution.
func TrackCycle(tr *disk.Track, t int) []byte {
	if tr.Length < disk.NIBTrackLength {
		return tr.Bytes()
	}
	zone := disk.SpeedZone(t)
	start, stop := gcr.FindCycle(tr.Bytes(),
		disk.CapacityMin(zone), disk.CapacityMax(zone))
	return tr.Data[start:stop]
}
