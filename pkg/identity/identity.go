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

// Package identity computes fingerprints of disks held in a track store, for
// recognizing known disks regardless of the image format they came in.
package identity

import (
	"crypto/md5"
	"fmt"
	"hash"
	"hash/crc32"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

// number of sectors of the directory track covered by directory fingerprints
const dirSectors = 2

// fingerprints cover the tracks of a standard disk only
const diskTracks = 35

// Fingerprints holds all fingerprints of a disk. MD5 sums are only present
// if requested.
type Fingerprints struct {
	ID      string `json:"id"`
	DirCRC  uint32 `json:"dirCRC"`
	DiskCRC uint32 `json:"diskCRC"`
	DirMD5  string `json:"dirMD5,omitempty"`
	DiskMD5 string `json:"diskMD5,omitempty"`
}

// Compute determines CRC32 fingerprints of directory and whole disk, plus
// MD5 sums if withMD5 is set.
func Compute(st *disk.Store, withMD5 bool) (*Fingerprints, error) {

	id, err := diskID(st)
	if err != nil {
		return nil, err
	}

	ret := &Fingerprints{ID: fmt.Sprintf("%c%c", id[0], id[1])}

	if ret.DirCRC, err = DirCRC(st); err != nil {
		return nil, err
	}
	if ret.DiskCRC, err = DiskCRC(st); err != nil {
		return nil, err
	}

	if withMD5 {
		var sum [md5.Size]byte
		if sum, err = DirMD5(st); err != nil {
			return nil, err
		}
		ret.DirMD5 = fmt.Sprintf("%x", sum)
		if sum, err = DiskMD5(st); err != nil {
			return nil, err
		}
		ret.DiskMD5 = fmt.Sprintf("%x", sum)
	}

	return ret, nil
}

// DirCRC returns the CRC32 over sectors 0 and 1 of the directory track. It
// changes whenever the directory or the disk name changes.
func DirCRC(st *disk.Store) (uint32, error) {
	h := crc32.NewIEEE()
	if err := digest(st, h, disk.DirTrack, disk.DirTrack, dirSectors); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

// DiskCRC returns the CRC32 over all sectors of tracks 1 through 35.
func DiskCRC(st *disk.Store) (uint32, error) {
	h := crc32.NewIEEE()
	if err := digest(st, h, 1, diskTracks, 0); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

//
func DirMD5(st *disk.Store) ([md5.Size]byte, error) {
	return md5Sum(st, disk.DirTrack, disk.DirTrack, dirSectors)
}

//
func DiskMD5(st *disk.Store) ([md5.Size]byte, error) {
	return md5Sum(st, 1, diskTracks, 0)
}

//
func md5Sum(st *disk.Store, first, last, sectors int) ([md5.Size]byte, error) {
	var ret [md5.Size]byte
	h := md5.New()
	if err := digest(st, h, first, last, sectors); err != nil {
		return ret, err
	}
	copy(ret[:], h.Sum(nil))
	return ret, nil
}

// digest feeds the decoded sectors of tracks first through last into h,
// track by track, sector by sector. With sectors > 0, only that many sectors
// are taken from each track. Defective sectors contribute what was decoded,
// i.e. zeroes if no data block was found.
func digest(st *disk.Store, h hash.Hash, first, last, sectors int) error {

	id, err := diskID(st)
	if err != nil {
		return err
	}

	for t := first; t <= last; t++ {
		decoded := format.DecodeTrack(format.TrackCycle(st.Track(2*t), t), t, id)
		if sectors > 0 && sectors < len(decoded) {
			decoded = decoded[:sectors]
		}
		if errs := format.ErrorString(decoded); errs != "" {
			log.Debugf("track %d: %s", t, errs)
		}
		for _, s := range decoded {
			h.Write(s.Data[:])
		}
	}

	return nil
}

//
func diskID(st *disk.Store) ([2]byte, error) {
	id, ok := gcr.ExtractID(st.DirTrack().Bytes())
	if !ok {
		return id, disk.ErrNoDirectory
	}
	return id, nil
}
