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

package identity

import (
	"bytes"
	"crypto/md5"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
)

// d64 returns a 35 track D64 image, with the sector at block index modify
// altered if modify is not negative
func d64(modify int) []byte {
	ret := make([]byte, disk.BlocksOnDisk*disk.SectorSize)
	for ix := range ret {
		ret[ix] = byte(ix*3 + ix/disk.SectorSize)
	}
	ret[format.D64IDOffset] = 'I'
	ret[format.D64IDOffset+1] = 'D'
	if modify >= 0 {
		ret[modify*disk.SectorSize+17] ^= 0xff
	}
	return ret
}

func load(t *testing.T, image []byte) *disk.Store {
	st := disk.NewStore()
	if _, err := format.NewD64().Read(
		bytes.NewReader(image), st, disk.NewGeometry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return st
}

func TestFingerprints(t *testing.T) {

	image := d64(-1)
	st := load(t, image)

	dirStart := disk.BlockIndex(disk.DirTrack, 0) * disk.SectorSize
	dir := image[dirStart : dirStart+dirSectors*disk.SectorSize]

	if crc, err := DirCRC(st); err != nil || crc != crc32.ChecksumIEEE(dir) {
		t.Errorf("unexpected directory CRC: %08x, %v", crc, err)
	}
	if crc, err := DiskCRC(st); err != nil || crc != crc32.ChecksumIEEE(image) {
		t.Errorf("unexpected disk CRC: %08x, %v", crc, err)
	}
	if sum, err := DirMD5(st); err != nil || sum != md5.Sum(dir) {
		t.Errorf("unexpected directory MD5: %x, %v", sum, err)
	}
	if sum, err := DiskMD5(st); err != nil || sum != md5.Sum(image) {
		t.Errorf("unexpected disk MD5: %x, %v", sum, err)
	}

	fp, err := Compute(st, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fp.ID != "ID" || fp.DirMD5 != "" || fp.DiskMD5 != "" {
		t.Errorf("unexpected fingerprints: %+v", fp)
	}
}

func TestFingerprintStability(t *testing.T) {

	base := load(t, d64(-1))
	baseDir, _ := DirCRC(base)
	baseDisk, _ := DiskCRC(base)

	tests := []struct {
		name       string
		block      int
		dirChanges bool
	}{
		{"track 5", disk.BlockIndex(5, 2), false},
		{"directory sector 0", disk.BlockIndex(disk.DirTrack, 0), true},
		{"directory sector 1", disk.BlockIndex(disk.DirTrack, 1), true},
		{"directory sector 2", disk.BlockIndex(disk.DirTrack, 2), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			st := load(t, d64(tc.block))

			dir, err := DirCRC(st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (dir != baseDir) != tc.dirChanges {
				t.Errorf("directory CRC change: want %v, got %v",
					tc.dirChanges, dir != baseDir)
			}

			all, err := DiskCRC(st)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if all == baseDisk {
				t.Errorf("disk CRC did not change")
			}
		})
	}
}

func TestNoDirectory(t *testing.T) {

	st := disk.NewStore()

	if _, err := DirCRC(st); !errors.Is(err, disk.ErrNoDirectory) {
		t.Errorf("want no directory error, got %v", err)
	}
	if _, err := DiskMD5(st); !errors.Is(err, disk.ErrNoDirectory) {
		t.Errorf("want no directory error, got %v", err)
	}
	if _, err := Compute(st, true); !errors.Is(err, disk.ErrNoDirectory) {
		t.Errorf("want no directory error, got %v", err)
	}
}
