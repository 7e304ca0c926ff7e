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

// Package pipeline drives a conversion run: reading an image into a track
// store, processing the tracks, and writing the store out again. It is
// shared by the command line and the HTTP API.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/track"
)

// Options for a conversion run
type Options struct {
	Geometry disk.Geometry
	// Align locates the revolution cycle of each track before writing. This
	// is always done when writing raw captures to G64.
	Align  bool
	Format *format.Options
}

//
func DefaultOptions() *Options {
	return &Options{
		Geometry: disk.NewGeometry(),
		Format:   format.DefaultOptions(),
	}
}

// Load reads an image of type typ into a new track store.
func Load(in io.Reader, typ string, opts *Options) (*disk.Store, disk.Geometry,
	error) {

	if opts == nil {
		opts = DefaultOptions()
	}

	if err := opts.Geometry.Validate(); err != nil {
		return nil, opts.Geometry, err
	}

	r, err := format.NewReader(typ, opts.Format)
	if err != nil {
		return nil, opts.Geometry, err
	}

	st := disk.NewStore()
	g, err := r.Read(in, st, opts.Geometry)
	if err != nil {
		return nil, g, err
	}

	log.WithFields(log.Fields{
		"format":   typ,
		"geometry": g.String(),
	}).Info("image loaded")

	return st, g, nil
}

// LoadFile reads the image file, taking its type from the file extension.
func LoadFile(file string, opts *Options) (*disk.Store, disk.Geometry, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, disk.Geometry{}, err
	}
	defer f.Close()

	return Load(bufio.NewReader(f), format.TypeFromName(file), opts)
}

// Save processes the tracks in st as needed for the target format and writes
// them as an image of type typ.
func Save(st *disk.Store, g disk.Geometry, from string, out io.Writer,
	typ string, opts *Options) error {

	if opts == nil {
		opts = DefaultOptions()
	}

	w, err := format.NewWriter(typ, opts.Format)
	if err != nil {
		return err
	}

	if needsAlignment(from, typ, opts) {
		track.Align(st, g, opts.forceAlign())
	}

	if err := w.Write(st, g, out); err != nil {
		return err
	}

	log.WithField("format", typ).Info("image written")
	return nil
}

// Convert reads an image of type from and writes it as type to.
func Convert(in io.Reader, from string, out io.Writer, to string,
	opts *Options) error {

	st, g, err := Load(in, from, opts)
	if err != nil {
		return err
	}
	return Save(st, g, from, out, to, opts)
}

// ConvertFile converts image file in into out, taking the formats from the
// file extensions. When anything goes wrong, no output file is left behind.
func ConvertFile(in, out string, opts *Options) (err error) {

	to := format.TypeFromName(out)
	if !format.CanWrite(to) {
		return fmt.Errorf("cannot write image format: %s", to)
	}

	st, g, err := LoadFile(in, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}

	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
		if err != nil {
			log.Errorf("conversion failed, removing %s", out)
			os.Remove(out)
		}
	}()

	w := bufio.NewWriter(f)
	if err = Save(st, g, format.TypeFromName(in), w, to, opts); err != nil {
		return err
	}
	return w.Flush()
}

//
func (o *Options) forceAlign() disk.Alignment {
	if o.Format == nil {
		return disk.AlignNone
	}
	return o.Format.ForceAlign
}

// raw captures need their cycle located before going into G64, D64 locates
// cycles on its own
func needsAlignment(from, to string, opts *Options) bool {
	if opts.Align || opts.forceAlign() != disk.AlignNone {
		return true
	}
	return from == "nib" && to == "g64"
}
