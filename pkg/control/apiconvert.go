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

package control

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/pipeline"
	"github.com/xelalexv/nibconv/pkg/track"
)

//
func (a *api) convert(w http.ResponseWriter, req *http.Request) {

	opts, err := getOptions(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	to := getArg(req, "to")
	if !format.CanWrite(to) {
		handleError(fmt.Errorf("cannot write image format: '%s'", to),
			http.StatusUnprocessableEntity, w)
		return
	}

	in, from := a.getSource(w, req, "from")
	if in == nil {
		return
	}
	defer in.Close()

	st, g, err := pipeline.Load(in, from, opts)
	if handleError(err, errorStatus(err), w) {
		return
	}

	var out bytes.Buffer
	if err := pipeline.Save(st, g, from, &out, to, opts); handleError(
		err, errorStatus(err), w) {
		return
	}

	sendImageReply(out.Bytes(), "image."+to, w)
}

// getOptions assembles conversion options from the request arguments
func getOptions(req *http.Request) (*pipeline.Options, error) {

	g, err := getGeometry(req)
	if err != nil {
		return nil, err
	}

	opts := pipeline.DefaultOptions()
	opts.Geometry = g
	opts.Align = isFlagSet(req, "align")
	opts.Format.FixGCR = isFlagSet(req, "fixgcr")
	opts.Format.Reducer = &track.Reducer{
		Sync:     !isFlagSet(req, "noreducesync"),
		BadGCR:   !isFlagSet(req, "noreducebadgcr"),
		Gaps:     !isFlagSet(req, "noreducegaps"),
		Truncate: true,
	}

	if opts.Format.ForceAlign, err = disk.ParseAlignment(
		getArg(req, "forcealign")); err != nil {
		return nil, err
	}

	return opts, nil
}
