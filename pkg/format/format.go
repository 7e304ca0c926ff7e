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

// Package format reads and writes the disk image formats NIB, NB2, G64 and
// D64 from and into a track store.
package format

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/track"
)

// ErrFormat is wrapped by all errors caused by malformed input images, e.g.
// wrong magic, unsupported size, or truncated headers.
var ErrFormat = errors.New("invalid image")

//
func formatError(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, a...))
}

// Reader interface for reading an image into a track store. The geometry
// passed in limits the half-tracks that are read, the returned geometry is
// the one settled by the image, i.e. with its track increment fixed.
type Reader interface {
	Read(in io.Reader, st *disk.Store, g disk.Geometry) (disk.Geometry, error)
}

// Writer interface for writing out a track store
type Writer interface {
	Write(st *disk.Store, g disk.Geometry, out io.Writer) error
}

// Options control the processing done by readers and writers.
type Options struct {
	// Reducer is used by the G64 writer for fitting over-long tracks
	Reducer *track.Reducer
	// FixGCR marks invalid GCR bytes before reducing, so that they can be
	// removed
	FixGCR bool
	// ForceAlign is the alignment preferred when locating track cycles
	ForceAlign disk.Alignment
}

//
func DefaultOptions() *Options {
	return &Options{Reducer: track.NewReducer()}
}

var types = []string{"nib", "nb2", "g64", "d64"}

// Types returns the names of all supported formats.
func Types() []string {
	return append([]string{}, types...)
}

// CanWrite tells whether images of type typ can be written.
func CanWrite(typ string) bool {
	return typ != "nb2"
}

// TypeFromName determines the image type from a file name's extension.
func TypeFromName(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

//
func NewReader(typ string, opts *Options) (Reader, error) {

	if opts == nil {
		opts = DefaultOptions()
	}

	switch typ {

	case "nib":
		return NewNIB(), nil

	case "nb2":
		return NewNB2(opts), nil

	case "g64":
		return NewG64(opts), nil

	case "d64":
		return NewD64(), nil

	default:
		return nil, fmt.Errorf("unsupported image format: %s", typ)
	}
}

//
func NewWriter(typ string, opts *Options) (Writer, error) {

	if opts == nil {
		opts = DefaultOptions()
	}

	switch typ {

	case "nib":
		return NewNIB(), nil

	case "g64":
		return NewG64(opts), nil

	case "d64":
		return NewD64(), nil

	default:
		return nil, fmt.Errorf("cannot write image format: %s", typ)
	}
}

// readImage reads a complete image into memory. Images are at most a few
// megabytes, and all formats need the total size before reading any tracks.
func readImage(in io.Reader) ([]byte, error) {
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("error reading image: %w", err)
	}
	return data, nil
}

// nativeZone is the speed zone a half-track has on a standard disk
func nativeZone(ht int) int {
	return disk.SpeedZone(ht / 2)
}
