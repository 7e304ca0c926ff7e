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

// NIBTrackLength is the size of a raw track slot, both in memory and in NIB
// files. It is large enough to hold more than one revolution of any track.
const NIBTrackLength = 0x2000

//
const (
	MaxTracks      = 42
	MaxHalfTracks  = MaxTracks * 2
	FirstHalfTrack = 2
	//
	SectorSize      = 256
	BlocksOnDisk    = 683
	MaxBlocksOnDisk = 768
	//
	DirTrack = 18
)

// IdleByte is the GCR value used for padding and gaps
const IdleByte = 0x55

// density byte layout: bits 0-1 carry the speed zone, the rest are flags
const (
	DensityMask   byte = 0x03
	BMMatch       byte = 0x10
	BMNoSync      byte = 0x40
	BMKillerTrack byte = 0x80
)

// sector count & native speed zone per logical track, index 0 unused
var sectorMap = [MaxTracks + 1]int{
	0,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, // 1-17
	19, 19, 19, 19, 19, 19, 19, // 18-24
	18, 18, 18, 18, 18, 18, // 25-30
	17, 17, 17, 17, 17, 17, 17, 17, 17, 17, 17, 17, // 31-42
}

var speedMap = [MaxTracks + 1]int{
	0,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	2, 2, 2, 2, 2, 2, 2,
	1, 1, 1, 1, 1, 1,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// nominal raw track capacity in bytes for each speed zone, at 300 rpm
var capacity = [4]int{6250, 6666, 7142, 7692}

// SectorCount returns the number of sectors on logical track t, or 0 if t is
// out of range.
func SectorCount(t int) int {
	if t < 1 || t > MaxTracks {
		return 0
	}
	return sectorMap[t]
}

// SpeedZone returns the native speed zone of logical track t.
func SpeedZone(t int) int {
	if t < 1 {
		return speedMap[1]
	}
	if t > MaxTracks {
		return speedMap[MaxTracks]
	}
	return speedMap[t]
}

//
func Capacity(zone int) int {
	return capacity[zone&int(DensityMask)]
}

// CapacityMin and CapacityMax bound the length of one revolution when
// searching for the track cycle, allowing for 1% of motor speed deviation.
func CapacityMin(zone int) int {
	c := Capacity(zone)
	return c - c/100
}

//
func CapacityMax(zone int) int {
	c := Capacity(zone)
	return c + c/100
}

// BlockCount returns the number of blocks held by tracks 1 through last.
func BlockCount(last int) int {
	ret := 0
	for t := 1; t <= last && t <= MaxTracks; t++ {
		ret += sectorMap[t]
	}
	return ret
}

// BlockIndex returns the position of track/sector in D64 block order.
func BlockIndex(t, s int) int {
	return BlockCount(t-1) + s
}
