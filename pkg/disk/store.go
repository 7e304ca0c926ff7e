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
	"fmt"
	"strings"
)

// Alignment identifies how the start of a track was chosen once its
// revolution cycle had been located.
type Alignment byte

//
const (
	AlignNone Alignment = iota
	AlignGap
	AlignSec0
	AlignLongSync
	AlignBadGCR
	AlignRaw
)

var alignmentNames = []string{"NONE", "GAP", "SEC0", "SYNC", "BADGCR", "RAW"}

//
func (a Alignment) String() string {
	if int(a) < len(alignmentNames) {
		return alignmentNames[a]
	}
	return fmt.Sprintf("ALIGN(%d)", a)
}

// ParseAlignment accepts the names produced by String, case insensitive.
// An empty string yields AlignNone.
func ParseAlignment(s string) (Alignment, error) {
	if s == "" {
		return AlignNone, nil
	}
	for ix, n := range alignmentNames {
		if strings.EqualFold(n, s) {
			return Alignment(ix), nil
		}
	}
	return AlignNone, fmt.Errorf("unknown alignment: %s", s)
}

// Track is the record kept for a single half-track.
type Track struct {
	// Data is the track's slot in the store's arena, always NIBTrackLength
	// bytes, with the meaningful part at the front
	Data      []byte
	Density   byte
	Length    int
	Alignment Alignment
}

// Zone returns the speed zone encoded in the track's density.
func (t *Track) Zone() int {
	return int(t.Density & DensityMask)
}

//
func (t *Track) IsFormatted() bool {
	return t.Length > 0
}

// Bytes returns the meaningful part of the track.
func (t *Track) Bytes() []byte {
	return t.Data[:t.Length]
}

// Set copies data into the track's slot and pads the rest with idle bytes.
func (t *Track) Set(data []byte) {
	n := copy(t.Data, data)
	for ix := n; ix < len(t.Data); ix++ {
		t.Data[ix] = IdleByte
	}
	t.Length = n
}

// Unformat clears the track and marks it as carrying no sync.
func (t *Track) Unformat(zone int, fill byte) {
	for ix := range t.Data {
		t.Data[ix] = fill
	}
	t.Density = byte(zone)&DensityMask | BMNoSync
	t.Length = 0
	t.Alignment = AlignNone
}

//
func (t *Track) String() string {
	return fmt.Sprintf("(%s:%d)", DensityString(t.Density), t.Length)
}

// DensityString renders a density byte as zone plus flags.
func DensityString(d byte) string {
	ret := fmt.Sprintf("%d", d&DensityMask)
	if d&BMNoSync != 0 {
		ret += " NOSYNC"
	}
	if d&BMKillerTrack != 0 {
		ret += " KILLER"
	}
	return ret
}

// Store holds all half-tracks of a disk. The raw track data lives in a
// single arena, each track record owning one NIBTrackLength slot of it.
// A store is meant for one image and one conversion run at a time.
type Store struct {
	arena  []byte
	tracks [MaxHalfTracks + 1]Track
}

//
func NewStore() *Store {
	s := &Store{arena: make([]byte, (MaxHalfTracks+1)*NIBTrackLength)}
	for ix := range s.arena {
		s.arena[ix] = IdleByte
	}
	for ix := range s.tracks {
		start := ix * NIBTrackLength
		end := start + NIBTrackLength
		s.tracks[ix].Data = s.arena[start:end:end]
	}
	return s
}

// Track returns the record for half-track ht, or nil if ht is out of range.
func (s *Store) Track(ht int) *Track {
	if ht < 1 || ht > MaxHalfTracks {
		return nil
	}
	return &s.tracks[ht]
}

// DirTrack returns the record of the directory track.
func (s *Store) DirTrack() *Track {
	return s.Track(DirTrack * 2)
}
