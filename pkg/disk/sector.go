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
	"errors"
	"fmt"
)

// sector error codes, as stored in D64 error info
const (
	SectorOK          byte = 0x01
	HeaderNotFound    byte = 0x02
	SyncNotFound      byte = 0x03
	DataNotFound      byte = 0x04
	BadDataChecksum   byte = 0x05
	BadGCRCode        byte = 0x06
	BadHeaderChecksum byte = 0x09
	IDMismatch        byte = 0x0b
)

var errorNames = map[byte]string{
	SectorOK:          "OK",
	HeaderNotFound:    "header not found",
	SyncNotFound:      "sync not found",
	DataNotFound:      "data block not found",
	BadDataChecksum:   "bad data checksum",
	BadGCRCode:        "bad GCR code",
	BadHeaderChecksum: "bad header checksum",
	IDMismatch:        "disk id mismatch",
}

// ErrorName returns a readable name for a sector error code.
func ErrorName(code byte) string {
	if n, ok := errorNames[code]; ok {
		return n
	}
	return fmt.Sprintf("unknown error 0x%02x", code)
}

// ErrNoDirectory is returned whenever the disk id cannot be located, i.e.
// the header of the directory track could not be found.
var ErrNoDirectory = errors.New("cannot find directory sector")

// Sector is the decoded view of a single block.
type Sector struct {
	Track  int
	Sector int
	Data   [SectorSize]byte
	Error  byte
}

//
func (s *Sector) OK() bool {
	return s.Error == SectorOK
}
