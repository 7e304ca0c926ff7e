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
	"github.com/xelalexv/nibconv/pkg/raw"
)

//
const (
	// G64TrackMaxLen is the slot size for each track in G64 images. Emulators
	// expect exactly this value, regardless of what the header says.
	G64TrackMaxLen  = 7928
	G64HeaderLength = 12
	G64Version      = 0
	// G64DataStart is the offset of the first track record
	G64DataStart = G64HeaderLength + 2*4*disk.MaxHalfTracks
)

// G64Magic is the signature at the start of G64 images.
var G64Magic = []byte("GCR-1541")

var g64HeaderIndex = map[string]raw.Field{
	"signature":  {0, 8},
	"version":    {8, 1},
	"halftracks": {9, 1},
	"maxlen":     {10, 2},
	"offsets":    {G64HeaderLength, 4 * disk.MaxHalfTracks},
	"speeds":     {G64HeaderLength + 4*disk.MaxHalfTracks, 4 * disk.MaxHalfTracks},
}

// G64 is a reader/writer for G64 format. G64 files contain one revolution
// of each half-track, in slots of fixed size. Each slot starts with the
// actual length of the track.
type G64 struct {
	opts *Options
}

//
func NewG64(opts *Options) *G64 {
	return &G64{opts: opts}
}

//
func (f *G64) Read(in io.Reader, st *disk.Store,
	g disk.Geometry) (disk.Geometry, error) {

	data, err := readImage(in)
	if err != nil {
		return g, err
	}

	if len(data) < G64DataStart {
		return g, formatError("image too short for header: %d bytes",
			len(data))
	}

	hd := raw.NewBlock(g64HeaderIndex, data[:G64DataStart])
	if !hd.HasSignature("signature", G64Magic) {
		return g, formatError("not a G64 image, signature is '%s'",
			hd.GetString("signature"))
	}

	maxLen := hd.GetInt("maxlen")
	if maxLen <= 0 {
		return g, formatError("invalid maximum track length: %d", maxLen)
	}

	count := (len(data) - G64DataStart) / (maxLen + 2)
	if count == 0 {
		return g, formatError("image does not contain any tracks")
	}

	g = g.Adjust(count)
	log.WithFields(log.Fields{
		"version":    hd.GetByte("version"),
		"halftracks": hd.GetByte("halftracks"),
		"maxlen":     maxLen,
		"entries":    count,
	}).Infof("reading tracks %s", g)

	for ht := disk.FirstHalfTrack; ht <= g.End; ht += g.Inc {

		ix := ht - disk.FirstHalfTrack
		t := st.Track(ht)

		zone := int(hd.GetTableEntry("speeds", ix))
		if zone > int(disk.DensityMask) {
			// offset of a per-byte speed map, which is not supported
			zone = nativeZone(ht)
		}

		offset := int(hd.GetTableEntry("offsets", ix))
		if offset == 0 {
			t.Unformat(zone, disk.IdleByte)
			log.Debugf("track %.1f not present", float32(ht)/2)
			continue
		}

		if offset < G64DataStart || offset+2 > len(data) {
			return g, formatError("invalid offset for track %.1f: %d",
				float32(ht)/2, offset)
		}

		length := int(data[offset]) | int(data[offset+1])<<8
		if length > maxLen || length > disk.NIBTrackLength {
			return g, formatError("invalid length for track %.1f: %d",
				float32(ht)/2, length)
		}
		if offset+2+length > len(data) {
			return g, formatError("track %.1f exceeds image", float32(ht)/2)
		}

		t.Set(data[offset+2 : offset+2+length])
		t.Density = byte(zone)
		if !gcr.HasSync(t.Bytes()) {
			t.Density |= disk.BMNoSync
		}
		t.Alignment = disk.AlignNone

		log.WithFields(log.Fields{
			"track":   float32(ht) / 2,
			"density": disk.DensityString(t.Density),
			"length":  t.Length,
		}).Debug("track loaded")
	}

	return g, nil
}

// Write writes all 84 half-track slots. With whole tracks only, the slots of
// half-tracks are left empty. Tracks longer than G64TrackMaxLen are reduced
// with the configured reducer, and truncated as a last resort. The store is
// not modified.
func (f *G64) Write(st *disk.Store, g disk.Geometry, out io.Writer) error {

	header := make([]byte, G64DataStart)
	hd := raw.NewBlock(g64HeaderIndex, header)
	hd.SetString("signature", string(G64Magic))
	hd.SetByte("version", G64Version)
	hd.SetByte("halftracks", disk.MaxHalfTracks)
	hd.SetInt("maxlen", G64TrackMaxLen)

	slot := 0
	for ix := 0; ix < disk.MaxHalfTracks; ix += g.Inc {
		hd.SetTableEntry("offsets", ix,
			uint32(G64DataStart+slot*(G64TrackMaxLen+2)))
		hd.SetTableEntry("speeds", ix,
			uint32(f.zone(st, ix+disk.FirstHalfTrack)))
		slot++
	}

	if _, err := out.Write(header); err != nil {
		return fmt.Errorf("cannot write G64 header: %v", err)
	}

	buf := make([]byte, disk.NIBTrackLength)
	record := make([]byte, G64TrackMaxLen+2)

	for ix := 0; ix < disk.MaxHalfTracks; ix += g.Inc {

		ht := ix + disk.FirstHalfTrack
		length := f.prepare(st, ht, buf)

		record[0] = byte(length)
		record[1] = byte(length >> 8)
		n := copy(record[2:], buf[:length])
		for k := 2 + n; k < len(record); k++ {
			record[k] = disk.IdleByte
		}

		if _, err := out.Write(record); err != nil {
			return fmt.Errorf("cannot write track %.1f: %v", float32(ht)/2, err)
		}
	}

	return nil
}

// zone returns the speed zone written for half-track ht. Tracks never filled
// by a reader get their native zone.
func (f *G64) zone(st *disk.Store, ht int) int {
	t := st.Track(ht)
	if t == nil || (!t.IsFormatted() && t.Density == 0) {
		return nativeZone(ht)
	}
	return t.Zone()
}

// prepare copies half-track ht into buf and fits it into a G64 slot,
// returning the resulting length. Unformatted tracks become a run of idle
// bytes as long as a nominal track of their native zone.
func (f *G64) prepare(st *disk.Store, ht int, buf []byte) int {

	t := st.Track(ht)

	if t == nil || !t.IsFormatted() {
		length := disk.Capacity(nativeZone(ht))
		for ix := range buf {
			buf[ix] = disk.IdleByte
		}
		return length
	}

	copy(buf, t.Data)
	length := t.Length

	if bad := gcr.CheckBadGCR(buf, length, f.opts.FixGCR); bad > 0 {
		log.WithFields(log.Fields{
			"track": float32(ht) / 2,
			"fixed": f.opts.FixGCR,
		}).Debugf("%d bad GCR bytes", bad)
	}

	if length > G64TrackMaxLen && f.opts.Reducer != nil {
		res := f.opts.Reducer.Reduce(buf, length, t.Density, G64TrackMaxLen)
		log.WithFields(log.Fields{
			"track":   float32(ht) / 2,
			"density": disk.DensityString(t.Density),
			"length":  length,
			"reduced": res.Length,
		}).Debugf("reduced %v", res.Removed)
		length = res.Length
	}

	if length > G64TrackMaxLen {
		log.Warnf("track %.1f truncated from %d to %d bytes",
			float32(ht)/2, length, G64TrackMaxLen)
		length = G64TrackMaxLen
	}

	return length
}
