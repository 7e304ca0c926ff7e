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
	"net/http"

	"github.com/xelalexv/nibconv/pkg/identity"
	"github.com/xelalexv/nibconv/pkg/pipeline"
)

//
func (a *api) identity(w http.ResponseWriter, req *http.Request) {

	in, typ := a.getSource(w, req, "type")
	if in == nil {
		return
	}
	defer in.Close()

	st, g, err := pipeline.Load(in, typ, nil)
	if handleError(err, errorStatus(err), w) {
		return
	}

	fp, err := identity.Compute(st, isFlagSet(req, "md5"))
	if handleError(err, errorStatus(err), w) {
		return
	}

	id := &Identity{Format: typ, Geometry: g.String(), Fingerprints: *fp}

	if wantsJSON(req) {
		sendJSONReply(id, http.StatusOK, w)
	} else {
		sendReply([]byte(id.String()), http.StatusOK, w)
	}
}
