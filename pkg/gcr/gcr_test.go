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
	"bytes"
	"testing"

	"github.com/xelalexv/nibconv/pkg/disk"
)

var testID = [2]byte{'A', 'B'}

func payload(track, sector int) []byte {
	ret := make([]byte, disk.SectorSize)
	for ix := range ret {
		ret[ix] = byte(track*7 + sector*13 + ix)
	}
	return ret
}

func sectors(track int) [][]byte {
	ret := make([][]byte, disk.SectorCount(track))
	for s := range ret {
		ret[s] = payload(track, s)
	}
	return ret
}

func TestEncodeDecode(t *testing.T) {

	plain := []byte{0x00, 0x01, 0x7f, 0x80, 0xa5, 0x5a, 0xfe, 0xff}
	gcr := Encode(plain)

	if len(gcr) != 10 {
		t.Fatalf("want 10 GCR bytes, got %d", len(gcr))
	}

	back, ok := Decode(gcr)
	if !ok {
		t.Fatalf("valid GCR reported as invalid")
	}
	if !bytes.Equal(plain, back) {
		t.Errorf("round trip mismatch: %v != %v", plain, back)
	}

	gcr[3] = 0x00
	if _, ok := Decode(gcr); ok {
		t.Errorf("invalid GCR not detected")
	}
}

func TestSectorErrors(t *testing.T) {

	tests := []struct {
		name string
		code byte
		want byte
	}{
		{"ok", disk.SectorOK, disk.SectorOK},
		{"header not found", disk.HeaderNotFound, disk.HeaderNotFound},
		{"data not found", disk.DataNotFound, disk.DataNotFound},
		{"bad data checksum", disk.BadDataChecksum, disk.BadDataChecksum},
		{"bad GCR", disk.BadGCRCode, disk.BadGCRCode},
		{"bad header checksum", disk.BadHeaderChecksum, disk.BadHeaderChecksum},
		{"id mismatch", disk.IDMismatch, disk.IDMismatch},
		{"no sync", disk.SyncNotFound, disk.HeaderNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			track := EncodeTrack(5, testID,
				[][]byte{payload(5, 0), payload(5, 1), payload(5, 2)},
				[]byte{disk.SectorOK, tc.code, disk.SectorOK})

			if len(track) != 3*SectorSize {
				t.Fatalf("unexpected track length %d", len(track))
			}

			for s := 0; s < 3; s++ {
				data, code := DecodeSector(track, 5, s, testID)
				want := disk.SectorOK
				if s == 1 {
					want = tc.want
				}
				if code != want {
					t.Errorf("sector %d: want code %d, got %d", s, want, code)
				}
				if code == disk.SectorOK && !bytes.Equal(data[:], payload(5, s)) {
					t.Errorf("sector %d: payload mismatch", s)
				}
			}
		})
	}
}

func TestSyncNotFound(t *testing.T) {
	track := EncodeSector(payload(1, 0), 1, 0, testID, disk.SyncNotFound)
	if _, code := DecodeSector(track, 1, 0, testID); code != disk.SyncNotFound {
		t.Errorf("want sync not found, got %d", code)
	}
	if _, code := DecodeSector(nil, 1, 0, testID); code != disk.SyncNotFound {
		t.Errorf("want sync not found for empty track, got %d", code)
	}
}

func TestDecodeWrappedSector(t *testing.T) {

	track := EncodeTrack(1, testID, sectors(1), nil)
	rotated := append(append([]byte{}, track[100:]...), track[:100]...)

	for s := 0; s < disk.SectorCount(1); s++ {
		data, code := DecodeSector(rotated, 1, s, testID)
		if code != disk.SectorOK {
			t.Fatalf("sector %d: want OK, got %d", s, code)
		}
		if !bytes.Equal(data[:], payload(1, s)) {
			t.Errorf("sector %d: payload mismatch", s)
		}
	}
}

func TestExtractID(t *testing.T) {

	id, ok := ExtractID(EncodeTrack(disk.DirTrack, testID, sectors(18), nil))
	if !ok {
		t.Fatalf("id not found")
	}
	if id != testID {
		t.Errorf("want id %v, got %v", testID, id)
	}

	if _, ok := ExtractID(EncodeTrack(17, testID, sectors(17), nil)); ok {
		t.Errorf("id found on non-directory track")
	}
}

// rotation returns one revolution of a track 1 with some padding, and a raw
// capture of it starting at an arbitrary position
func rotation() ([]byte, []byte) {

	rot := EncodeTrack(1, testID, sectors(1), nil)
	for ix := 0; ix < 100; ix++ {
		rot = append(rot, disk.IdleByte)
	}

	capture := make([]byte, disk.NIBTrackLength)
	for ix := range capture {
		capture[ix] = rot[(3000+ix)%len(rot)]
	}

	return rot, capture
}

func TestFindCycle(t *testing.T) {

	rot, capture := rotation()
	zone := disk.SpeedZone(1)

	start, stop := FindCycle(capture, disk.CapacityMin(zone), disk.CapacityMax(zone))
	if stop-start != len(rot) {
		t.Errorf("want cycle length %d, got %d", len(rot), stop-start)
	}

	// a single revolution without repetition is taken as a whole
	start, stop = FindCycle(rot, disk.CapacityMin(zone), disk.CapacityMax(zone))
	if start != 0 || stop != len(rot) {
		t.Errorf("want 0 - %d, got %d - %d", len(rot), start, stop)
	}
}

func TestExtractTrack(t *testing.T) {

	rot, capture := rotation()
	zone := disk.SpeedZone(1)
	dst := make([]byte, disk.NIBTrackLength)

	length, align := ExtractTrack(dst, capture, disk.AlignNone,
		disk.CapacityMin(zone), disk.CapacityMax(zone))

	if length != len(rot) {
		t.Fatalf("want length %d, got %d", len(rot), length)
	}
	if align != disk.AlignSec0 {
		t.Errorf("want alignment SEC0, got %v", align)
	}
	if !bytes.Equal(dst[:length], rot) {
		t.Errorf("extracted track not aligned to sector 0")
	}
	for ix := length; ix < len(dst); ix++ {
		if dst[ix] != disk.IdleByte {
			t.Fatalf("padding at %d is 0x%02x", ix, dst[ix])
		}
	}

	_, align = ExtractTrack(dst, capture, disk.AlignRaw,
		disk.CapacityMin(zone), disk.CapacityMax(zone))
	if align != disk.AlignRaw {
		t.Errorf("want forced alignment RAW, got %v", align)
	}
}

func TestCheckBadGCR(t *testing.T) {

	track := EncodeTrack(1, testID, sectors(1), nil)
	if n := CheckBadGCR(track, len(track), false); n != 0 {
		t.Errorf("valid track reported with %d bad GCR bytes", n)
	}

	data := []byte{0xff, 0x80, 0x00, 0x01, 0xff}
	if n := CheckBadGCR(data, len(data), true); n != 3 {
		t.Errorf("want 3 bad GCR bytes, got %d", n)
	}
	if !bytes.Equal(data, []byte{0xff, 0x00, 0x00, 0x00, 0xff}) {
		t.Errorf("bad GCR not fixed: %v", data)
	}
}

func TestRuns(t *testing.T) {

	data := []byte{0x55, 0xff, 0xff, 0xff, 0x52, 0xff, 0x55, 0x55, 0xff, 0xff}

	syncs := SyncRuns(data)
	if len(syncs) != 2 || syncs[0] != (Run{1, 3}) || syncs[1] != (Run{8, 2}) {
		t.Errorf("unexpected sync runs: %v", syncs)
	}

	gaps := GapRuns(data, 1)
	if len(gaps) != 2 || gaps[0] != (Run{0, 1}) || gaps[1] != (Run{6, 2}) {
		t.Errorf("unexpected gap runs: %v", gaps)
	}
}
