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

package gcr

// CheckBadGCR scans the first length bytes of data for GCR that no valid
// code sequence can produce, i.e. three or more consecutive zero bits. The
// number of affected bytes is returned. With fix set, these bytes are
// replaced by BadGCRByte, which turns them into runs the capacity reducer
// can work on.
func CheckBadGCR(data []byte, length int, fix bool) int {

	if length > len(data) {
		length = len(data)
	}

	bad := make([]bool, length)
	count := 0
	zeros := 0

	for ix := 0; ix < length; ix++ {
		for bit := 7; bit >= 0; bit-- {
			if data[ix]&(1<<uint(bit)) != 0 {
				zeros = 0
				continue
			}
			if zeros++; zeros >= 3 && !bad[ix] {
				bad[ix] = true
				count++
			}
		}
	}

	if fix {
		for ix, b := range bad {
			if b {
				data[ix] = BadGCRByte
			}
		}
	}

	return count
}

// IsBadGCR tells whether b is the marker left by CheckBadGCR for an invalid
// GCR byte.
func IsBadGCR(b byte) bool {
	return b == BadGCRByte
}
