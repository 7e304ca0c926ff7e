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
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

//
const (
	// NB2Passes is the number of captures stored per track, four passes for
	// each of the four densities
	NB2Passes = 16
	nb2Passes = 4
	// pass of the directory track used for reading the disk id
	nb2IDPass = 8
)

// NB2 is a reader for NB2 format. NB2 files use the NIB header, but hold
// several captures of each track, taken at all four densities. Only the
// passes at the density given in the header are evaluated, and the one
// with the fewest defective sectors is kept.
type NB2 struct {
	opts *Options
}

//
func NewNB2(opts *Options) *NB2 {
	return &NB2{opts: opts}
}

//
func (n *NB2) Read(in io.Reader, st *disk.Store,
	g disk.Geometry) (disk.Geometry, error) {

	data, err := readImage(in)
	if err != nil {
		return g, err
	}

	entrySize := NB2Passes * disk.NIBTrackLength
	hd, count, err := nibHeader(data, entrySize)
	if err != nil {
		return g, err
	}

	g, layout, err := nibLayout(hd, count, g)
	if err != nil {
		return g, err
	}
	log.Infof("%d track entries, reading tracks %s", count, g)

	dirEntry := -1
	for entry, ht := range layout {
		if ht == disk.DirTrack*2 {
			dirEntry = entry
		}
	}
	if dirEntry < 0 {
		return g, formatError("image ends before directory track")
	}
	start := NIBHeaderLength + dirEntry*entrySize + nb2IDPass*disk.NIBTrackLength
	id, ok := gcr.ExtractID(data[start : start+disk.NIBTrackLength])
	if !ok {
		return g, formatError("%v", disk.ErrNoDirectory)
	}
	log.Infof("disk id: %c%c", id[0], id[1])

	extracted := make([]byte, disk.NIBTrackLength)

	loaded := 0
	for entry, ht := range layout {

		if ht > g.End {
			break
		}
		loaded++

		t := st.Track(ht)
		t.Density = entryDensity(hd, entry)
		zone := t.Zone()
		base := NIBHeaderLength + entry*entrySize

		best, bestErrors := -1, 0

		for pass := 0; pass < nb2Passes; pass++ {

			start := base + (zone*nb2Passes+pass)*disk.NIBTrackLength
			capture := data[start : start+disk.NIBTrackLength]

			length, align := gcr.ExtractTrack(extracted, capture,
				n.opts.ForceAlign, disk.CapacityMin(zone), disk.CapacityMax(zone))
			bad := CountErrors(extracted[:length], ht/2, id)

			if best < 0 || bad < bestErrors {
				best, bestErrors = pass, bad
				copy(t.Data, extracted)
				t.Length = length
				t.Alignment = align
			}
		}

		log.WithFields(log.Fields{
			"track":   float32(ht) / 2,
			"density": disk.DensityString(t.Density),
			"length":  t.Length,
			"pass":    best,
			"errors":  bestErrors,
		}).Debug("best pass selected")
	}

	log.Debugf("%d tracks loaded", loaded)
	return g, nil
}
