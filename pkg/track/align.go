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

package track

import (
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/gcr"
)

// Align locates the revolution cycle of every half-track covered by g and
// rewrites the track so that it starts at the chosen alignment point. Length
// and alignment of each track are updated. Unformatted tracks are left
// alone. With force other than disk.AlignNone, that alignment is preferred.
func Align(st *disk.Store, g disk.Geometry, force disk.Alignment) {

	log.Infof("aligning tracks %s", g)
	src := make([]byte, disk.NIBTrackLength)

	for ht := g.Start; ht <= g.End; ht += g.Inc {

		t := st.Track(ht)
		if t == nil || !t.IsFormatted() {
			continue
		}

		n := copy(src, t.Bytes())
		zone := t.Zone()
		t.Length, t.Alignment = gcr.ExtractTrack(t.Data, src[:n], force,
			disk.CapacityMin(zone), disk.CapacityMax(zone))

		log.WithFields(log.Fields{
			"track":     float32(ht) / 2,
			"density":   disk.DensityString(t.Density),
			"length":    t.Length,
			"alignment": t.Alignment,
		}).Debug("aligned")
	}
}
