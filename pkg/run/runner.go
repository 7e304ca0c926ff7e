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
	"math"
	"strings"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/pipeline"
	"github.com/xelalexv/nibconv/pkg/track"
)

//
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.

- Image formats are taken from the file extensions: nib, nb2, g64, d64.
`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

// Runner carries the settings shared by all commands that process images.
type Runner struct {
	//
	Command
	//
	Start float64
	End   float64
	//
	Align          bool
	ForceAlign     string
	FixGCR         bool
	NoReduceSync   bool
	NoReduceBadGCR bool
	NoReduceGaps   bool
}

//
func (r *Runner) AddBaseSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather has
	// to be called from the top level command type. Otherwise, we will confuse
	// Cobra/Viper and the settings will not be filled with their values.
	r.AddSetting(&r.Start, "start", "s", true, 1.0,
		"first track to process, use .5 for half-tracks", false)
	r.AddSetting(&r.End, "end", "e", true, float64(disk.MaxTracks),
		"last track to process, use .5 for half-tracks", false)
}

//
func (r *Runner) AddProcessingSettings() {
	r.AddSetting(&r.Align, "align", "", true, nil,
		"locate track cycles and align tracks before writing", false)
	r.AddSetting(&r.ForceAlign, "force-align", "", true, nil,
		`force an alignment method for all tracks;
one of gap, sec0, sync, badgcr, raw`, false)
	r.AddSetting(&r.FixGCR, "fix-gcr", "", true, nil,
		"replace bad GCR bytes when writing G64", false)
	r.AddSetting(&r.NoReduceSync, "no-reduce-sync", "", true, nil,
		"do not shorten syncs of over-long tracks", false)
	r.AddSetting(&r.NoReduceBadGCR, "no-reduce-badgcr", "", true, nil,
		"do not shorten bad GCR runs of over-long tracks", false)
	r.AddSetting(&r.NoReduceGaps, "no-reduce-gaps", "", true, nil,
		"do not shorten sector gaps of over-long tracks", false)
}

// Geometry turns the track range settings into a half-track geometry.
func (r *Runner) Geometry() (disk.Geometry, error) {

	g := disk.NewGeometry()

	var err error
	if g.Start, err = halfTrack(r.Start); err != nil {
		return g, err
	}
	if g.End, err = halfTrack(r.End); err != nil {
		return g, err
	}

	if g.Start%2 != 0 || g.End%2 != 0 {
		g.Inc = 1
	}

	return g, g.Validate()
}

// Options assembles the pipeline options from the runner's settings.
func (r *Runner) Options() (*pipeline.Options, error) {

	g, err := r.Geometry()
	if err != nil {
		return nil, err
	}

	opts := pipeline.DefaultOptions()
	opts.Geometry = g
	opts.Align = r.Align
	opts.Format.FixGCR = r.FixGCR
	opts.Format.Reducer = &track.Reducer{
		Sync:     !r.NoReduceSync,
		BadGCR:   !r.NoReduceBadGCR,
		Gaps:     !r.NoReduceGaps,
		Truncate: true,
	}

	if opts.Format.ForceAlign, err = disk.ParseAlignment(
		strings.TrimSpace(r.ForceAlign)); err != nil {
		return nil, err
	}

	return opts, nil
}

// halfTrack converts a track number such as 18 or 18.5 into a half-track.
func halfTrack(t float64) (int, error) {
	ht := t * 2
	if ht != math.Trunc(ht) {
		return 0, fmt.Errorf(
			"invalid track number: %v; only whole and half tracks allowed", t)
	}
	return int(ht), nil
}
