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
	"bytes"
	"errors"
	"testing"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
	"github.com/xelalexv/nibconv/pkg/track"
)

var testID = [2]byte{'Z', 'X'}

func payload(t, s, variant int) []byte {
	ret := make([]byte, disk.SectorSize)
	for ix := range ret {
		ret[ix] = byte(t*7 + s*13 + ix + variant*31)
	}
	return ret
}

func encode(t, variant int, codes []byte) []byte {
	sectors := make([][]byte, disk.SectorCount(t))
	for s := range sectors {
		sectors[s] = payload(t, s, variant)
	}
	return gcr.EncodeTrack(t, testID, sectors, codes)
}

// rotation returns one nominal revolution of logical track t, with codes
// built into its sectors
func rotation(t, variant int, codes []byte) []byte {
	ret := encode(t, variant, codes)
	for len(ret) < disk.Capacity(disk.SpeedZone(t)) {
		ret = append(ret, disk.IdleByte)
	}
	return ret
}

// capture simulates reading a track slot from a drive, starting at an
// arbitrary position of the revolution
func capture(rot []byte, offset int) []byte {
	ret := make([]byte, disk.NIBTrackLength)
	for ix := range ret {
		ret[ix] = rot[(offset+ix)%len(rot)]
	}
	return ret
}

func d64Image(tracks int, codes map[int]byte) []byte {

	var ret []byte
	for t := 1; t <= tracks; t++ {
		for s := 0; s < disk.SectorCount(t); s++ {
			ret = append(ret, payload(t, s, 0)...)
		}
	}
	ret[D64IDOffset] = testID[0]
	ret[D64IDOffset+1] = testID[1]

	if codes != nil {
		sidecar := make([]byte, disk.BlockCount(tracks))
		for ix := range sidecar {
			sidecar[ix] = disk.SectorOK
		}
		for ix, c := range codes {
			sidecar[ix] = c
		}
		ret = append(ret, sidecar...)
	}

	return ret
}

func nibImage(entries int) []byte {
	ret := make([]byte, NIBHeaderLength+entries*disk.NIBTrackLength)
	copy(ret, NIBMagic)
	return ret
}

func mustRead(t *testing.T, r Reader, data []byte) (*disk.Store, disk.Geometry) {
	st := disk.NewStore()
	g, err := r.Read(bytes.NewReader(data), st, disk.NewGeometry())
	if err != nil {
		t.Fatalf("unexpected error reading image: %v", err)
	}
	return st, g
}

func mustWrite(t *testing.T, w Writer, st *disk.Store, g disk.Geometry) []byte {
	var out bytes.Buffer
	if err := w.Write(st, g, &out); err != nil {
		t.Fatalf("unexpected error writing image: %v", err)
	}
	return out.Bytes()
}

func TestNIBRoundTrip(t *testing.T) {

	st := disk.NewStore()
	g := disk.Geometry{Start: 2, End: 70, Inc: 2}

	for ht := g.Start; ht <= g.End; ht += g.Inc {
		data := make([]byte, disk.NIBTrackLength)
		for ix := range data {
			data[ix] = byte(ht*7 + ix*13)
		}
		tr := st.Track(ht)
		tr.Set(data)
		tr.Density = byte(disk.SpeedZone(ht / 2))
	}
	st.Track(40).Density |= disk.BMKillerTrack

	image := mustWrite(t, NewNIB(), st, g)
	if len(image) != NIBHeaderLength+35*disk.NIBTrackLength {
		t.Fatalf("unexpected image size: %d", len(image))
	}
	if image[13] != NIBVersion || image[15] != 0 {
		t.Errorf("unexpected version or half-track flag: %v", image[13:16])
	}

	back, gBack := mustRead(t, NewNIB(), image)
	if gBack != g {
		t.Errorf("want geometry %v, got %v", g, gBack)
	}

	for ht := g.Start; ht <= g.End; ht += g.Inc {
		want, got := st.Track(ht), back.Track(ht)
		if got.Density != want.Density {
			t.Errorf("track %d: want density %s, got %s", ht,
				disk.DensityString(want.Density), disk.DensityString(got.Density))
		}
		if got.Length != disk.NIBTrackLength {
			t.Errorf("track %d: want length %d, got %d", ht,
				disk.NIBTrackLength, got.Length)
		}
		if !bytes.Equal(got.Data, want.Data) {
			t.Errorf("track %d: data mismatch", ht)
		}
	}

	if again := mustWrite(t, NewNIB(), back, gBack); !bytes.Equal(image, again) {
		t.Errorf("rewritten image differs")
	}
}

func TestNIBHalfTracks(t *testing.T) {

	st := disk.NewStore()
	g := disk.Geometry{Start: 2, End: 40, Inc: 1}

	for ht := g.Start; ht <= g.End; ht++ {
		data := make([]byte, disk.NIBTrackLength)
		for ix := range data {
			data[ix] = byte(ht)
		}
		tr := st.Track(ht)
		tr.Set(data)
		tr.Density = byte(disk.SpeedZone(ht / 2))
	}

	image := mustWrite(t, NewNIB(), st, g)
	if len(image) != NIBHeaderLength+39*disk.NIBTrackLength {
		t.Fatalf("unexpected image size: %d", len(image))
	}
	if image[15] != 1 {
		t.Errorf("half-track flag not set")
	}

	back, gBack := mustRead(t, NewNIB(), image)
	if gBack != g {
		t.Errorf("want geometry %v, got %v", g, gBack)
	}
	for ht := g.Start; ht <= g.End; ht++ {
		if got := back.Track(ht).Data[0]; got != byte(ht) {
			t.Errorf("half-track %d: holds data of half-track %d", ht, got)
		}
	}

	// entries placed by the track table, even if not consecutive
	image = nibImage(3)
	for ix, ht := range []byte{2, 3, 8} {
		image[nibTrackTable+2*ix] = ht
		image[NIBHeaderLength+ix*disk.NIBTrackLength] = ht
	}
	back, gBack = mustRead(t, NewNIB(), image)
	if want := (disk.Geometry{Start: 2, End: 8, Inc: 1}); gBack != want {
		t.Errorf("want geometry %v, got %v", want, gBack)
	}
	for _, ht := range []int{2, 3, 8} {
		if got := back.Track(ht).Data[0]; got != byte(ht) {
			t.Errorf("half-track %d: holds data of half-track %d", ht, got)
		}
	}
	if back.Track(4).IsFormatted() {
		t.Errorf("half-track 4 should not have been loaded")
	}

	image[nibTrackTable+2] = 2
	if _, err := NewNIB().Read(bytes.NewReader(image), disk.NewStore(),
		disk.NewGeometry()); !errors.Is(err, ErrFormat) {
		t.Errorf("want format error for unordered track table, got %v", err)
	}
}

func TestNIBGeometry(t *testing.T) {

	tests := []struct {
		name    string
		entries int
		end     int
		want    disk.Geometry
	}{
		{"35 tracks", 35, 84, disk.Geometry{Start: 2, End: 70, Inc: 2}},
		{"42 tracks", 42, 84, disk.Geometry{Start: 2, End: 84, Inc: 2}},
		{"84 half-tracks", 84, 84, disk.Geometry{Start: 2, End: 84, Inc: 1}},
		{"70 half-tracks", 70, 84, disk.Geometry{Start: 2, End: 71, Inc: 1}},
		{"limited end", 35, 40, disk.Geometry{Start: 2, End: 40, Inc: 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := disk.NewStore()
			g := disk.NewGeometry()
			g.End = tc.end
			got, err := NewNIB().Read(bytes.NewReader(nibImage(tc.entries)), st, g)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("want geometry %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNIBInvalid(t *testing.T) {

	image := nibImage(35)
	image[0] = 'X'

	_, err := NewNIB().Read(bytes.NewReader(image), disk.NewStore(),
		disk.NewGeometry())
	if !errors.Is(err, ErrFormat) {
		t.Errorf("want format error, got %v", err)
	}

	_, err = NewNIB().Read(bytes.NewReader(image[:100]), disk.NewStore(),
		disk.NewGeometry())
	if !errors.Is(err, ErrFormat) {
		t.Errorf("want format error for short image, got %v", err)
	}
}

func TestD64RoundTrip(t *testing.T) {

	tests := []struct {
		name   string
		tracks int
		codes  map[int]byte
		size   int
	}{
		{"35 tracks", 35, nil, 174848},
		{"35 tracks, no errors", 35, map[int]byte{}, 174848},
		{"40 tracks", 40, nil, 196608},
		{"35 tracks, one error", 35,
			map[int]byte{disk.BlockIndex(5, 3): disk.BadDataChecksum}, 175531},
		{"40 tracks, one error", 40,
			map[int]byte{disk.BlockIndex(38, 1): disk.BadDataChecksum}, 197376},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			image := d64Image(tc.tracks, tc.codes)
			st, g := mustRead(t, NewD64(), image)

			if g.Inc != 2 || g.End != 80 {
				t.Errorf("unexpected geometry: %v", g)
			}
			if tr := st.Track(2); tr.Length != 21*gcr.SectorSize ||
				tr.Alignment != disk.AlignSec0 || tr.Zone() != 3 {
				t.Errorf("unexpected track 1: %s", tr)
			}

			out := mustWrite(t, NewD64(), st, g)
			if len(out) != tc.size {
				t.Fatalf("want size %d, got %d", tc.size, len(out))
			}

			blocks := disk.BlockCount(tc.tracks)
			if !bytes.Equal(out[:blocks*disk.SectorSize],
				image[:blocks*disk.SectorSize]) {
				t.Errorf("sector data differs")
			}

			if len(out) > blocks*disk.SectorSize {
				sidecar := out[blocks*disk.SectorSize:]
				for ix, c := range sidecar {
					want := disk.SectorOK
					if code, ok := tc.codes[ix]; ok {
						want = code
					}
					if c != want {
						t.Errorf("block %d: want code %d, got %d", ix, want, c)
					}
				}
			}
		})
	}
}

func TestD64Unformatted(t *testing.T) {

	st, g := mustRead(t, NewD64(), d64Image(35, nil))

	for ht := 72; ht <= g.End; ht += 2 {
		tr := st.Track(ht)
		if tr.Length != 0 || tr.Density != 2|disk.BMNoSync {
			t.Errorf("track %d not unformatted: %s", ht, tr)
		}
	}
}

func TestD64BadSize(t *testing.T) {

	st := disk.NewStore()
	image := d64Image(35, nil)

	_, err := NewD64().Read(bytes.NewReader(image[:len(image)-1]), st,
		disk.NewGeometry())
	if !errors.Is(err, ErrFormat) {
		t.Errorf("want format error, got %v", err)
	}
	if st.Track(2).Length != 0 {
		t.Errorf("store modified by failed read")
	}
}

func TestD64NoDirectory(t *testing.T) {
	var out bytes.Buffer
	err := NewD64().Write(disk.NewStore(), disk.NewGeometry(), &out)
	if !errors.Is(err, disk.ErrNoDirectory) {
		t.Errorf("want no directory error, got %v", err)
	}
}

func TestG64(t *testing.T) {

	st, g := mustRead(t, NewD64(), d64Image(35, nil))
	w := NewG64(DefaultOptions())

	image := mustWrite(t, w, st, g)
	if len(image) != G64DataStart+42*(G64TrackMaxLen+2) {
		t.Fatalf("unexpected image size: %d", len(image))
	}
	if again := mustWrite(t, w, st, g); !bytes.Equal(image, again) {
		t.Errorf("writing twice yields different images")
	}

	// unformatted track 36 becomes idle bytes of nominal zone 0 length
	slot := G64DataStart + 35*(G64TrackMaxLen+2)
	length := int(image[slot]) | int(image[slot+1])<<8
	if length != disk.Capacity(0) {
		t.Errorf("want unformatted track length %d, got %d",
			disk.Capacity(0), length)
	}
	for ix := slot + 2; ix < slot+2+length; ix++ {
		if image[ix] != disk.IdleByte {
			t.Fatalf("byte %d of unformatted track is 0x%02x", ix, image[ix])
		}
	}

	back, gBack := mustRead(t, NewG64(DefaultOptions()), image)
	if gBack.Inc != 2 || gBack.End != 84 {
		t.Errorf("unexpected geometry: %v", gBack)
	}
	for ht := 2; ht <= 70; ht += 2 {
		if !bytes.Equal(back.Track(ht).Bytes(), st.Track(ht).Bytes()) {
			t.Errorf("track %d differs after reading back", ht)
		}
		if back.Track(ht).Density != st.Track(ht).Density {
			t.Errorf("track %d: density differs after reading back", ht)
		}
	}

	if again := mustWrite(t, w, back, gBack); !bytes.Equal(image, again) {
		t.Errorf("image read back and written again differs")
	}
}

func TestG64Reduce(t *testing.T) {

	// track 31 with long syncs, exceeding the G64 slot size
	plain := encode(31, 0, nil)
	var long []byte
	pos := 0
	for _, r := range gcr.SyncRuns(plain) {
		long = append(long, plain[pos:r.Pos]...)
		long = append(long, bytes.Repeat([]byte{gcr.SyncByte}, 55)...)
		pos = r.Pos
	}
	long = append(long, plain[pos:]...)
	if len(long) <= G64TrackMaxLen || len(long) >= disk.NIBTrackLength {
		t.Fatalf("test track length out of range: %d", len(long))
	}
	if bad := CountErrors(long, 31, testID); bad != 0 {
		t.Fatalf("test track has %d bad sectors", bad)
	}

	st := disk.NewStore()
	tr := st.Track(62)
	tr.Set(long)
	tr.Density = 0
	g := disk.Geometry{Start: 2, End: 84, Inc: 2}

	for _, tc := range []struct {
		name    string
		reducer *track.Reducer
	}{
		{"reduce", track.NewReducer()},
		{"truncate", &track.Reducer{}},
	} {
		t.Run(tc.name, func(t *testing.T) {

			image := mustWrite(t, NewG64(&Options{Reducer: tc.reducer}), st, g)

			slot := G64DataStart + 30*(G64TrackMaxLen+2)
			length := int(image[slot]) | int(image[slot+1])<<8
			if length != G64TrackMaxLen {
				t.Errorf("want length %d, got %d", G64TrackMaxLen, length)
			}
			if tr.Length != len(long) {
				t.Errorf("store was modified")
			}

			bad := CountErrors(image[slot+2:slot+2+length], 31, testID)
			if tc.reducer.Sync && bad != 0 {
				t.Errorf("reduced track has %d bad sectors", bad)
			}
			if !tc.reducer.Sync && bad == 0 {
				t.Errorf("truncated track should have lost sectors")
			}
		})
	}
}

func TestNB2BestPass(t *testing.T) {

	const entries = 18

	image := make([]byte, NIBHeaderLength+entries*NB2Passes*disk.NIBTrackLength)
	copy(image, NIBMagic)
	for ix := NIBHeaderLength; ix < len(image); ix++ {
		image[ix] = disk.IdleByte
	}

	bad := func(count int) []byte {
		ret := make([]byte, disk.SectorCount(1))
		for ix := range ret {
			ret[ix] = disk.SectorOK
		}
		for ix := 0; ix < count; ix++ {
			ret[2*ix+1] = disk.BadDataChecksum
		}
		return ret
	}

	for e := 0; e < entries; e++ {
		tr := e + 1
		zone := disk.SpeedZone(tr)
		image[nibTrackTable+2*e] = byte(2 * tr)
		image[nibTrackTable+2*e+1] = byte(zone)

		// pass 0 has 3 errors, passes 1 and 2 none but differ, pass 3 one
		passes := [][]byte{
			rotation(tr, 0, bad(3)),
			rotation(tr, 1, nil),
			rotation(tr, 2, nil),
			rotation(tr, 0, bad(1)),
		}
		for p, rot := range passes {
			start := NIBHeaderLength +
				(e*NB2Passes+zone*4+p)*disk.NIBTrackLength
			copy(image[start:], capture(rot, 1000+p*777))
		}
	}

	st, g := mustRead(t, NewNB2(DefaultOptions()), image)
	if g.Inc != 2 || g.End != 2*entries {
		t.Errorf("unexpected geometry: %v", g)
	}

	for e := 0; e < entries; e++ {

		tr := e + 1
		got := st.Track(2 * tr)

		if got.Length != disk.Capacity(disk.SpeedZone(tr)) {
			t.Errorf("track %d: unexpected length %d", tr, got.Length)
		}
		if got.Alignment != disk.AlignSec0 {
			t.Errorf("track %d: want alignment SEC0, got %v", tr, got.Alignment)
		}

		sectors := DecodeTrack(got.Bytes(), tr, testID)
		if s := ErrorString(sectors); s != "" {
			t.Errorf("track %d: unexpected errors %s", tr, s)
		}
		if !bytes.Equal(sectors[0].Data[:], payload(tr, 0, 1)) {
			t.Errorf("track %d: pass 1 not selected", tr)
		}
	}
}

func TestErrorString(t *testing.T) {
	sectors := []disk.Sector{
		{Sector: 0, Error: disk.SectorOK},
		{Sector: 1, Error: disk.BadDataChecksum},
		{Sector: 2, Error: disk.SectorOK},
		{Sector: 3, Error: disk.IDMismatch},
	}
	if s := ErrorString(sectors); s != "E5S1 E11S3" {
		t.Errorf("unexpected error string: '%s'", s)
	}
}

func TestFactory(t *testing.T) {

	for _, typ := range Types() {
		if _, err := NewReader(typ, nil); err != nil {
			t.Errorf("no reader for %s: %v", typ, err)
		}
		if _, err := NewWriter(typ, nil); (err == nil) != CanWrite(typ) {
			t.Errorf("unexpected writer availability for %s: %v", typ, err)
		}
	}

	if _, err := NewReader("mdr", nil); err == nil {
		t.Errorf("expected error for unsupported format")
	}

	if typ := TypeFromName("/tmp/Game.G64"); typ != "g64" {
		t.Errorf("want g64, got %s", typ)
	}
}
