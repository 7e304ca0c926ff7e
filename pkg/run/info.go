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

package run

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/gcr"
	"github.com/xelalexv/nibconv/pkg/identity"
	"github.com/xelalexv/nibconv/pkg/pipeline"
)

//
func NewInfo() *Info {

	i := &Info{}
	i.Runner = *NewRunner(
		`info -i|--input {file} [--md5] [--full] [-s|--start {track}] [-e|--end {track}]`,
		"show information about a disk image",
		`Use the info command to show the track range of a disk image, and the fingerprints
of its directory and its contents. With --full, every track is listed with its
density, length, alignment, and defective sectors.`,
		"", loggingHelp+runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.Input, "input", "i", false, nil, "image input file", true)
	i.AddSetting(&i.MD5, "md5", "", true, false,
		"also calculate MD5 sums", false)
	i.AddSetting(&i.Full, "full", "", false, false,
		"list all tracks", false)

	i.out = os.Stdout
	return i
}

//
type Info struct {
	//
	Runner
	//
	Input string
	MD5   bool
	Full  bool
	//
	out io.Writer
}

//
func (i *Info) Run() error {

	opts, err := i.Options()
	if err != nil {
		return err
	}

	st, g, err := pipeline.LoadFile(i.Input, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(i.out, "\nimage:     %s\nformat:    %s\ngeometry:  %s\n",
		i.Input, format.TypeFromName(i.Input), g)

	if i.Full {
		listTracks(i.out, st, g)
	}

	fp, err := identity.Compute(st, i.MD5)
	if err != nil {
		fmt.Fprintf(i.out, "\nno fingerprints: %v\n\n", err)
		return nil
	}

	fmt.Fprintf(i.out, "\ndisk id:   %s\ndir CRC:   %08X\ndisk CRC:  %08X\n",
		fp.ID, fp.DirCRC, fp.DiskCRC)
	if i.MD5 {
		fmt.Fprintf(i.out, "dir MD5:   %s\ndisk MD5:  %s\n", fp.DirMD5, fp.DiskMD5)
	}
	fmt.Fprintln(i.out)

	return nil
}

// listTracks prints a table of all tracks in g. Defective sectors can only be
// determined for whole tracks, and when the disk id is known.
func listTracks(out io.Writer, st *disk.Store, g disk.Geometry) {

	id, haveID := gcr.ExtractID(st.DirTrack().Bytes())

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "\nTRACK\tDENSITY\tLENGTH\tALIGN\tERRORS")

	for ht := g.Start; ht <= g.End; ht += g.Inc {

		tr := st.Track(ht)
		errs := ""

		if !tr.IsFormatted() {
			errs = "unformatted"

		} else if ht%2 == 0 && haveID {
			t := ht / 2
			errs = format.ErrorString(
				format.DecodeTrack(format.TrackCycle(tr, t), t, id))
		}

		fmt.Fprintf(w, "%.1f\t%s\t%d\t%s\t%s\n", float32(ht)/2,
			disk.DensityString(tr.Density), tr.Length, tr.Alignment, errs)
	}

	w.Flush()
}
