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
	"fmt"

	"github.com/xelalexv/nibconv/pkg/identity"
)

//
type Format struct {
	Name  string `json:"name"`
	Read  bool   `json:"read"`
	Write bool   `json:"write"`
}

//
func (f *Format) String() string {
	return fmt.Sprintf("  %-6s%s     %s", f.Name, yesNo(f.Read), yesNo(f.Write))
}

//
type Identity struct {
	Format   string `json:"format"`
	Geometry string `json:"geometry"`
	identity.Fingerprints
}

//
func (i *Identity) String() string {

	ret := fmt.Sprintf("\nformat:    %s\ngeometry:  %s\ndisk id:   %s",
		i.Format, i.Geometry, i.ID)
	ret += fmt.Sprintf("\ndir CRC:   %08X\ndisk CRC:  %08X", i.DirCRC, i.DiskCRC)

	if i.DirMD5 != "" {
		ret += fmt.Sprintf("\ndir MD5:   %s", i.DirMD5)
	}
	if i.DiskMD5 != "" {
		ret += fmt.Sprintf("\ndisk MD5:  %s", i.DiskMD5)
	}

	return ret
}

//
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no "
}
