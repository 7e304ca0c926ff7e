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
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

//
const (
	D64TracksStandard = 35
	D64TracksExtended = 40
	// D64IDOffset is the position of the disk id within the BAM sector
	D64IDOffset = 0x165a2
)

// D64 is a reader/writer for D64 format. D64 files contain the decoded
// sectors of tracks 1 through 35 or 40, optionally followed by an error code
// for each block. There is no GCR data in a D64 file. When reading, it gets
// synthesized from the sectors, with the recorded errors built in.
type D64 struct{}

//
func NewD64() *D64 {
	return &D64{}
}

//
func (d *D64) Read(in io.Reader, st *disk.Store,
	g disk.Geometry) (disk.Geometry, error) {

	data, err := readImage(in)
	if err != nil {
		return g, err
	}

	var last int
	var sidecar []byte

	switch len(data) {

	case disk.BlocksOnDisk * (disk.SectorSize + 1):
		sidecar = data[disk.BlocksOnDisk*disk.SectorSize:]
		fallthrough
	case disk.BlocksOnDisk * disk.SectorSize:
		last = D64TracksStandard

	case disk.MaxBlocksOnDisk * (disk.SectorSize + 1):
		sidecar = data[disk.MaxBlocksOnDisk*disk.SectorSize:]
		fallthrough
	case disk.MaxBlocksOnDisk * disk.SectorSize:
		last = D64TracksExtended

	default:
		return g, formatError("bad D64 image size: %d bytes", len(data))
	}

	g = g.Adjust(D64TracksExtended)
	id := [2]byte{data[D64IDOffset], data[D64IDOffset+1]}

	log.WithFields(log.Fields{
		"tracks": last,
		"errors": sidecar != nil,
		"id":     fmt.Sprintf("%c%c", id[0], id[1]),
	}).Info("reading D64")

	block := 0
	for t := 1; t <= last; t++ {

		buf := make([]byte, 0, disk.SectorCount(t)*gcr.SectorSize)

		for s := 0; s < disk.SectorCount(t); s++ {
			code := disk.SectorOK
			if sidecar != nil && sidecar[block] != 0 {
				code = sidecar[block]
			}
			if code != disk.SectorOK {
				log.Debugf("track %d sector %d: %s", t, s, disk.ErrorName(code))
			}
			start := block * disk.SectorSize
			buf = append(buf, gcr.EncodeSector(
				data[start:start+disk.SectorSize], t, s, id, code)...)
			block++
		}

		tr := st.Track(2 * t)
		tr.Set(buf)
		tr.Density = byte(disk.SpeedZone(t))
		tr.Alignment = disk.AlignSec0
	}

	// tracks beyond 35 do not exist on a standard disk
	if last == D64TracksStandard {
		for ht := 2*last + 2; ht <= g.End; ht += 2 {
			st.Track(ht).Unformat(2, 0x00)
		}
	}

	return g, nil
}

// Write decodes tracks 1 through 40 into sectors. Tracks 36 through 40 are
// only written if any of their sectors could be decoded. Error codes are
// appended if any sector within the written range is defective.
func (d *D64) Write(st *disk.Store, g disk.Geometry, out io.Writer) error {

	id, ok := gcr.ExtractID(st.DirTrack().Bytes())
	if !ok {
		return fmt.Errorf("cannot write D64: %w", disk.ErrNoDirectory)
	}

	data := make([]byte, 0, disk.MaxBlocksOnDisk*disk.SectorSize)
	codes := make([]byte, 0, disk.MaxBlocksOnDisk)
	var errors35, errors40, tracks40 bool

	for t := 1; t <= D64TracksExtended; t++ {

		sectors := DecodeTrack(TrackCycle(st.Track(2*t), t), t, id)

		for _, s := range sectors {
			data = append(data, s.Data[:]...)
			codes = append(codes, s.Error)
			if !s.OK() {
				if t <= D64TracksStandard {
					errors35 = true
				} else {
					errors40 = true
				}
			} else if t > D64TracksStandard {
				tracks40 = true
			}
		}

		if errs := ErrorString(sectors); errs != "" {
			log.Debugf("track %d: %s", t, errs)
		}
	}

	blocks := disk.BlocksOnDisk
	withErrors := errors35
	if tracks40 {
		blocks = disk.MaxBlocksOnDisk
		withErrors = errors35 || errors40
	}

	log.WithFields(log.Fields{
		"blocks": blocks,
		"errors": withErrors,
	}).Info("writing D64")

	if _, err := out.Write(data[:blocks*disk.SectorSize]); err != nil {
		return fmt.Errorf("cannot write D64 data: %v", err)
	}

	if withErrors {
		if _, err := out.Write(codes[:blocks]); err != nil {
			return fmt.Errorf("cannot write D64 error info: %v", err)
		}
	}

	return nil
}
