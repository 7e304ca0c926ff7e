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
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/pipeline"
)

//
func NewConvert() *Convert {

	c := &Convert{}
	c.Runner = *NewRunner(
		`convert -i|--input {file} -o|--output {file} [-f|--force]
      [-s|--start {track}] [-e|--end {track}] [--align] [--force-align {method}]
      [--fix-gcr] [--no-reduce-sync] [--no-reduce-badgcr] [--no-reduce-gaps]`,
		"convert a disk image into another format",
		`Use the convert command to turn a disk image into another format. Raw NIB and NB2
captures can be written as G64 or D64, G64 images as D64 or NIB, and D64 images
as G64 or NIB. Tracks that are too long for G64 are reduced, starting with the
longest syncs, then bad GCR runs, then sector gaps. Only when all of this fails
to make the track fit, its end is cut off.`,
		"", `- The formats are determined by the file extensions of the given file names.
  NB2 can only be read.

- When writing D64, an error information block is appended if any sector
  is defective.

`+loggingHelp+runnerHelpEpilogue, c.Run)

	c.AddBaseSettings()
	c.AddProcessingSettings()
	c.AddSetting(&c.Input, "input", "i", false, nil, "image input file", true)
	c.AddSetting(&c.Output, "output", "o", false, nil, "image output file", true)
	c.AddSetting(&c.Force, "force", "f", false, false,
		"force overwriting output file", false)

	return c
}

//
type Convert struct {
	//
	Runner
	//
	Input  string
	Output string
	Force  bool
}

//
func (c *Convert) Run() error {

	opts, err := c.Options()
	if err != nil {
		return err
	}

	if to := format.TypeFromName(c.Output); !format.CanWrite(to) {
		return fmt.Errorf("cannot write image format: '%s'", to)
	}

	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil &&
			!GetUserConfirmation("File exists, overwrite?") {
			return nil
		}
	}

	log.WithFields(log.Fields{
		"input":  c.Input,
		"output": c.Output,
	}).Info("converting")

	if err := pipeline.ConvertFile(c.Input, c.Output, opts); err != nil {
		return err
	}

	fmt.Println("image converted")
	return nil
}
