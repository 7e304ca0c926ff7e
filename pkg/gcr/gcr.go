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

// Package gcr implements the group code recording used by the 1541 drive,
// i.e. conversion of plain bytes to flux level GCR bytes and back, locating
// sectors, syncs and the revolution cycle within raw track data.
package gcr

// GCR block sizes, in bytes of GCR data
const (
	SyncLength      = 5
	HeaderLength    = 10
	HeaderGapLength = 9
	DataLength      = 325
	SectorGapLength = 7
	SectorSize      = SyncLength + HeaderLength + HeaderGapLength +
		SyncLength + DataLength + SectorGapLength
)

// plain block identifiers
const (
	HeaderBlockID = 0x08
	DataBlockID   = 0x07
)

//
const (
	SyncByte   = 0xff
	BadGCRByte = 0x00
)

var toGCR = [16]byte{
	0x0a, 0x0b, 0x12, 0x13, 0x0e, 0x0f, 0x16, 0x17,
	0x09, 0x19, 0x1a, 0x1b, 0x0d, 0x1d, 0x1e, 0x15,
}

var fromGCR [32]byte

func init() {
	for ix := range fromGCR {
		fromGCR[ix] = 0xff
	}
	for n, g := range toGCR {
		fromGCR[g] = byte(n)
	}
}

// Encode converts plain bytes to GCR, every four plain bytes yielding five
// GCR bytes. A trailing incomplete group is ignored.
func Encode(plain []byte) []byte {

	ret := make([]byte, 0, len(plain)/4*5)

	for ix := 0; ix+4 <= len(plain); ix += 4 {
		var bits uint64
		for _, b := range plain[ix : ix+4] {
			bits = bits<<10 | uint64(toGCR[b>>4])<<5 | uint64(toGCR[b&0x0f])
		}
		for shift := 32; shift >= 0; shift -= 8 {
			ret = append(ret, byte(bits>>uint(shift)))
		}
	}

	return ret
}

// Decode converts GCR bytes back to plain bytes, five GCR bytes yielding four
// plain ones. Invalid codes decode as zero nibbles; ok is false if there
// were any.
func Decode(gcr []byte) (plain []byte, ok bool) {

	ok = true
	plain = make([]byte, 0, len(gcr)/5*4)

	for ix := 0; ix+5 <= len(gcr); ix += 5 {
		var bits uint64
		for _, b := range gcr[ix : ix+5] {
			bits = bits<<8 | uint64(b)
		}
		for shift := 35; shift >= 0; shift -= 10 {
			hi := fromGCR[(bits>>uint(shift))&0x1f]
			lo := fromGCR[(bits>>uint(shift-5))&0x1f]
			if hi == 0xff {
				ok = false
				hi = 0
			}
			if lo == 0xff {
				ok = false
				lo = 0
			}
			plain = append(plain, hi<<4|lo)
		}
	}

	return plain, ok
}
