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

// Package control provides the HTTP API for converting and identifying disk
// images.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/disk"
	"github.com/xelalexv/nibconv/pkg/format"
	"github.com/xelalexv/nibconv/pkg/repo"
)

// DefaultPort is used when the listen address carries no port.
const DefaultPort = "8541"

// largest image accepted in a request body, enough for an NB2 image with
// half-tracks
var maxImageSize int64 = 12 * 1048576

var errImageTooLarge = errors.New("image exceeds size limit")

const shutdownTimeout = 10 * time.Second

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr, repository string) APIServer {
	return &api{address: addr, repository: repository}
}

// api serves each request with its own track store, so requests can be
// handled concurrently.
type api struct {
	address    string
	repository string
	//
	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

//
func (a *api) Serve() error {

	addr := a.address
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}

	log.WithFields(log.Fields{
		"address":    addr,
		"repository": a.repository,
	}).Info("NibConv API starts listening")

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	server := &http.Server{Addr: addr, Handler: a.router()}
	a.server = server
	a.mu.Unlock()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for running conversions to finish.
// A server that has not started serving yet will not do so anymore.
func (a *api) Stop() error {

	a.mu.Lock()
	server := a.server
	a.server = nil
	a.stopped = true
	a.mu.Unlock()

	if server == nil {
		return nil
	}

	log.Info("API server stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(ctx)
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "formats", "GET", "/formats", a.formats)
	addRoute(router, "convert", "PUT", "/convert", a.convert)
	addRoute(router, "identity", "PUT", "/identity", a.identity)
	addRoute(router, "repoconvert", "GET", "/repo/convert", a.convert)
	addRoute(router, "repoidentity", "GET", "/repo/identity", a.identity)

	return router
}

//
func (a *api) formats(w http.ResponseWriter, req *http.Request) {

	var list []*Format
	for _, t := range format.Types() {
		list = append(list, &Format{Name: t, Read: true, Write: format.CanWrite(t)})
	}

	if wantsJSON(req) {
		sendJSONReply(list, http.StatusOK, w)
		return
	}

	out := "\nFORMAT  READ  WRITE"
	for _, f := range list {
		out += "\n" + f.String()
	}
	sendReply([]byte(out), http.StatusOK, w)
}

// getSource returns the image to work on, either from the repository if the
// request carries a reference, or from the request body. Also returned is
// the image type, taken from argument typeArg, or from the reference if that
// argument is missing.
func (a *api) getSource(w http.ResponseWriter, req *http.Request,
	typeArg string) (io.ReadCloser, string) {

	typ := getArg(req, typeArg)
	var in io.ReadCloser

	if ref := getArg(req, "ref"); ref != "" {
		var err error
		if in, err = repo.Resolve(ref, a.repository); handleError(
			err, http.StatusNotAcceptable, w) {
			return nil, ""
		}
		if typ == "" {
			typ = format.TypeFromName(ref)
		}

	} else {
		in = &imageBody{ReadCloser: req.Body, left: maxImageSize}
	}

	if _, err := format.NewReader(typ, nil); err != nil {
		in.Close()
		handleError(err, http.StatusUnprocessableEntity, w)
		return nil, ""
	}

	return in, typ
}

// getGeometry takes optional start and end half-tracks from the request
func getGeometry(req *http.Request) (disk.Geometry, error) {

	g := disk.NewGeometry()

	for arg, val := range map[string]*int{"start": &g.Start, "end": &g.End} {
		if v := getArg(req, arg); v != "" {
			ht, err := strconv.Atoi(v)
			if err != nil {
				return g, fmt.Errorf("invalid %s half-track: '%s'", arg, v)
			}
			*val = ht
		}
	}

	return g, g.Validate()
}

// errorStatus maps processing errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, format.ErrFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, disk.ErrNoDirectory):
		return http.StatusConflict
	case errors.Is(err, errImageTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// imageBody passes on at most left bytes of a request body, and fails with
// errImageTooLarge once the body turns out to be longer
type imageBody struct {
	io.ReadCloser
	left int64
}

//
func (b *imageBody) Read(p []byte) (int, error) {

	if b.left < 0 {
		return 0, errImageTooLarge
	}
	if int64(len(p)) > b.left+1 {
		p = p[:b.left+1]
	}

	n, err := b.ReadCloser.Read(p)
	if int64(n) > b.left {
		n = int(b.left)
		b.left = -1
		return n, errImageTooLarge
	}

	b.left -= int64(n)
	return n, err
}
