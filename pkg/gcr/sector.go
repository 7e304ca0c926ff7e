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
	"github.com/xelalexv/nibconv/pkg/disk"
)

// maximum distance in GCR bytes between end of a header and the sync of its
// data block
const maxHeaderGap = 64

// EncodeSector creates the GCR representation of a sector, including syncs
// and gaps. If code is not disk.SectorOK, the respective error is built into
// the sector, so that decoding it yields the same error again. The only
// exception is disk.SyncNotFound, which wipes the sector's syncs and will
// decode as disk.HeaderNotFound if the track carries any other sync.
func EncodeSector(data []byte, track, sector int, id [2]byte, code byte) []byte {

	ret := make([]byte, 0, SectorSize)

	if code == disk.SyncNotFound {
		for ix := 0; ix < SectorSize; ix++ {
			ret = append(ret, disk.IdleByte)
		}
		return ret
	}

	header := []byte{HeaderBlockID, 0, byte(sector), byte(track),
		id[1], id[0], 0x0f, 0x0f}
	if code == disk.IDMismatch {
		header[4] ^= 0xff
		header[5] ^= 0xff
	}
	header[1] = header[2] ^ header[3] ^ header[4] ^ header[5]
	if code == disk.BadHeaderChecksum {
		header[1] ^= 0xff
	}
	if code == disk.HeaderNotFound {
		header[0] = 0x00
	}

	block := make([]byte, 260)
	block[0] = DataBlockID
	copy(block[1:disk.SectorSize+1], data)
	block[disk.SectorSize+1] = checksum(block[1 : disk.SectorSize+1])
	if code == disk.BadDataChecksum {
		block[disk.SectorSize+1] ^= 0xff
	}
	if code == disk.DataNotFound {
		block[0] = 0x00
	}

	ret = appendRun(ret, SyncByte, SyncLength)
	ret = append(ret, Encode(header)...)
	ret = appendRun(ret, disk.IdleByte, HeaderGapLength)
	ret = appendRun(ret, SyncByte, SyncLength)
	dataStart := len(ret)
	ret = append(ret, Encode(block)...)
	ret = appendRun(ret, disk.IdleByte, SectorGapLength)

	if code == disk.BadGCRCode {
		ret[dataStart+DataLength/2] = BadGCRByte
	}

	return ret
}

// DecodeSector searches cycle for the given sector and decodes it. The cycle
// is treated as circular, i.e. a sector may wrap around its end. The
// returned payload is all zeroes if no data block was found.
func DecodeSector(cycle []byte, track, sector int, id [2]byte) ([disk.SectorSize]byte, byte) {

	var ret [disk.SectorSize]byte

	buf := circular(cycle)
	syncs := syncEnds(buf, len(cycle))
	if len(syncs) == 0 {
		return ret, disk.SyncNotFound
	}

	for _, p := range syncs {

		header, ok := decodeAt(buf, p, HeaderLength)
		if !ok || header[0] != HeaderBlockID ||
			int(header[2]) != sector || int(header[3]) != track {
			continue
		}

		code := disk.SectorOK
		if header[1] != header[2]^header[3]^header[4]^header[5] {
			code = disk.BadHeaderChecksum
		} else if header[4] != id[1] || header[5] != id[0] {
			code = disk.IDMismatch
		}

		q := nextSyncEnd(buf, p+HeaderLength, p+HeaderLength+maxHeaderGap)
		if q < 0 || q+DataLength > len(buf) {
			return ret, worst(code, disk.DataNotFound)
		}

		block, valid := Decode(buf[q : q+DataLength])
		if block[0] != DataBlockID {
			return ret, worst(code, disk.DataNotFound)
		}

		copy(ret[:], block[1:disk.SectorSize+1])

		if !valid {
			return ret, worst(code, disk.BadGCRCode)
		}
		if block[disk.SectorSize+1] != checksum(ret[:]) {
			return ret, worst(code, disk.BadDataChecksum)
		}
		return ret, code
	}

	return ret, disk.HeaderNotFound
}

// ExtractID locates the header of the directory track's first sector in
// data and returns the disk id found there. If sector 0 cannot be found, the
// id of any other intact directory track header is used.
func ExtractID(data []byte) ([2]byte, bool) {

	var ret [2]byte
	found := false

	buf := circular(data)

	for _, p := range syncEnds(buf, len(data)) {
		header, ok := decodeAt(buf, p, HeaderLength)
		if !ok || header[0] != HeaderBlockID ||
			header[3] != disk.DirTrack ||
			header[1] != header[2]^header[3]^header[4]^header[5] {
			continue
		}
		if !found || header[2] == 0 {
			ret[0], ret[1] = header[5], header[4]
			found = true
		}
		if header[2] == 0 {
			break
		}
	}

	return ret, found
}

//
func checksum(data []byte) byte {
	var ret byte
	for _, b := range data {
		ret ^= b
	}
	return ret
}

// worst keeps an already present error over a subsequent one
func worst(current, next byte) byte {
	if current != disk.SectorOK {
		return current
	}
	return next
}

//
func appendRun(buf []byte, b byte, n int) []byte {
	for ix := 0; ix < n; ix++ {
		buf = append(buf, b)
	}
	return buf
}

//
func decodeAt(buf []byte, pos, length int) ([]byte, bool) {
	if pos < 0 || pos+length > len(buf) {
		return nil, false
	}
	return Decode(buf[pos : pos+length])
}

// EncodeTrack creates a formatted track from its sectors' payloads, sector 0
// first. codes holds the error code for each sector and may be nil.
func EncodeTrack(track int, id [2]byte, sectors [][]byte, codes []byte) []byte {

	ret := make([]byte, 0, len(sectors)*SectorSize)

	for s, data := range sectors {
		code := disk.SectorOK
		if s < len(codes) {
			code = codes[s]
		}
		ret = append(ret, EncodeSector(data, track, s, id, code)...)
	}

	return ret
}
