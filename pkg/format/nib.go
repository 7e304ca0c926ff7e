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
	"github.com/xelalexv/nibconv/pkg/raw"
)

//
const (
	NIBHeaderLength = 0x100
	NIBVersion      = 3
	nibTrackTable   = 0x10
)

// NIBMagic is the signature at the start of NIB and NB2 images.
var NIBMagic = []byte("MNIB-1541-RAW")

var nibHeaderIndex = map[string]raw.Field{
	"signature":  {0, 13},
	"version":    {13, 1},
	"reserved":   {14, 1},
	"halftracks": {15, 1},
	"tracks":     {nibTrackTable, 2 * disk.MaxHalfTracks},
}

// NIB is a reader/writer for NIB format. NIB files contain the raw capture
// of each half-track in a fixed size slot, starting with track 1. Only the
// density of each track is kept in the header, the track's actual length
// is not recorded.
type NIB struct{}

//
func NewNIB() *NIB {
	return &NIB{}
}

// nibHeader checks magic and size of a NIB or NB2 image and returns its
// header along with the number of track entries, each entry taking up
// entrySize bytes.
func nibHeader(data []byte, entrySize int) (*raw.Block, int, error) {

	if len(data) < NIBHeaderLength {
		return nil, 0, formatError("image too short for header: %d bytes",
			len(data))
	}

	hd := raw.NewBlock(nibHeaderIndex, data[:NIBHeaderLength])
	if !hd.HasSignature("signature", NIBMagic) {
		return nil, 0, formatError("not a NIB image, signature is '%s'",
			hd.GetString("signature"))
	}

	count := (len(data) - NIBHeaderLength) / entrySize
	if count == 0 {
		return nil, 0, formatError("image does not contain any tracks")
	}

	log.WithFields(log.Fields{
		"version":    hd.GetByte("version"),
		"halftracks": hd.GetByte("halftracks"),
		"entries":    count,
		"size":       len(data),
	}).Debug("NIB header")

	return hd, count, nil
}

// entryDensity returns the density recorded in the header for the ix-th
// track entry
func entryDensity(hd *raw.Block, ix int) byte {
	table := hd.GetSlice("tracks")
	if 2*ix+1 >= len(table) {
		return 0
	}
	return table[2*ix+1] &^ disk.BMMatch
}

// nibLayout returns the half-track each track entry of a NIB or NB2 image
// belongs to, along with the geometry resulting from that. Entries beyond the
// geometry's end are included, readers skip them. The half-track
// numbers are taken from the header's track table. Images without a table
// are taken to hold consecutive entries, whole or half-tracks depending on
// their count.
func nibLayout(hd *raw.Block, count int, g disk.Geometry) (disk.Geometry,
	[]int, error) {

	table := hd.GetSlice("tracks")

	var ret []int

	if table[0] == 0 {
		g = g.Adjust(count)
		for ix := 0; ix < count; ix++ {
			ht := disk.FirstHalfTrack + ix*g.Inc
			if ht > disk.MaxHalfTracks {
				break
			}
			ret = append(ret, ht)
		}
		log.Debug("no track table, layout inferred from image size")
		return g, ret, nil
	}

	inc := 2
	if hd.GetByte("halftracks") != 0 {
		inc = 1
	}

	last := 0
	for ix := 0; ix < count && ix < disk.MaxHalfTracks; ix++ {
		ht := int(table[2*ix])
		if ht == 0 {
			break
		}
		if ht < disk.FirstHalfTrack || ht > disk.MaxHalfTracks || ht <= last {
			return g, nil, formatError(
				"invalid track table entry %d: half-track %d", ix, ht)
		}
		if ht%2 != 0 {
			inc = 1
		}
		ret = append(ret, ht)
		last = ht
	}

	return g.Settle(inc, last), ret, nil
}

//
func (n *NIB) Read(in io.Reader, st *disk.Store,
	g disk.Geometry) (disk.Geometry, error) {

	data, err := readImage(in)
	if err != nil {
		return g, err
	}

	hd, count, err := nibHeader(data, disk.NIBTrackLength)
	if err != nil {
		return g, err
	}

	g, layout, err := nibLayout(hd, count, g)
	if err != nil {
		return g, err
	}
	if g.Inc == 1 {
		log.Info("image contains half-tracks")
	}
	log.Infof("%d track entries, reading tracks %s", count, g)

	loaded := 0
	for entry, ht := range layout {
		if ht > g.End {
			break
		}
		t := st.Track(ht)
		start := NIBHeaderLength + entry*disk.NIBTrackLength
		t.Set(data[start : start+disk.NIBTrackLength])
		t.Density = entryDensity(hd, entry)
		t.Alignment = disk.AlignNone
		log.WithFields(log.Fields{
			"track":   float32(ht) / 2,
			"density": disk.DensityString(t.Density),
		}).Debug("track loaded")
		loaded++
	}

	log.Debugf("%d tracks loaded", loaded)
	return g, nil
}

// Write writes all half-tracks from the first through g.End. Tracks are
// always written starting with the first half-track, and each entry's
// half-track is recorded in the header's track table.
func (n *NIB) Write(st *disk.Store, g disk.Geometry, out io.Writer) error {

	header := make([]byte, NIBHeaderLength)
	hd := raw.NewBlock(nibHeaderIndex, header)
	hd.SetString("signature", string(NIBMagic))
	hd.SetByte("version", NIBVersion)
	if g.Inc == 1 {
		hd.SetByte("halftracks", 1)
	}

	entries := g.Entries()
	table := hd.GetSlice("tracks")
	for entry := 0; entry < entries; entry++ {
		ht := disk.FirstHalfTrack + entry*g.Inc
		table[2*entry] = byte(ht)
		table[2*entry+1] = st.Track(ht).Density &^ disk.BMMatch
	}

	if _, err := out.Write(header); err != nil {
		return fmt.Errorf("unable to write NIB header: %v", err)
	}

	for entry := 0; entry < entries; entry++ {
		ht := disk.FirstHalfTrack + entry*g.Inc
		if _, err := out.Write(st.Track(ht).Data); err != nil {
			return fmt.Errorf("unable to write NIB track %.1f: %v",
				float32(ht)/2, err)
		}
	}

	log.Debugf("%d tracks written", entries)
	return nil
}
