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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/nibconv/pkg/run"
)

//
var NibConvVersion string

//
func synopsis() {
	fmt.Print(`
synopsis: nibconv {convert|info|serve|version} ...

run 'nibconv {action} -h|--help' to see detailed info

`)
}

//
func version() {
	fmt.Printf("\nNibConv %s\n\n", NibConvVersion)
}

//
func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	switch action {

	case "convert":
		run.DieOnError(run.NewConvert().Execute(args))

	case "info":
		run.DieOnError(run.NewInfo().Execute(args))

	case "serve":
		version()
		run.DieOnError(run.NewServe().Execute(args))

	case "version":
		version()

	case "", "-h", "--help":
		synopsis()

	default:
		run.Die("unknown action: %s", action)
	}
}
