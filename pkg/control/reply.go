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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	contentText   = "text/plain; charset=UTF-8"
	contentJSON   = "application/json; charset=UTF-8"
	contentBinary = "application/octet-stream"
)

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).Path(pattern).Name(name).Handler(
		requestLogger(handler, name))
}

// statusRecorder remembers status code and size of a reply for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

//
func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

//
func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.size += n
	return n, err
}

// requestLogger logs a request when it comes in, and its outcome once it has
// been served.
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		entry := log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		})
		entry.Debugf("API BEGIN | %s", name)

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		inner.ServeHTTP(rec, r)

		entry.WithFields(log.Fields{
			"status":   rec.status,
			"size":     rec.size,
			"duration": time.Since(start),
		}).Infof("API END   | %s", name)
	})
}

// getArg returns the value of query argument arg, or empty string if not
// present. Values arrive already unescaped.
func getArg(req *http.Request, arg string) string {
	return strings.TrimSpace(req.URL.Query().Get(arg))
}

// isFlagSet accepts the usual spellings of true, such as 1 or true.
func isFlagSet(req *http.Request, flag string) bool {
	ret, err := strconv.ParseBool(getArg(req, flag))
	return err == nil && ret
}

// wantsJSON tells whether JSON output was requested. For requests carrying
// an image, this is done via the Accept header.
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// handleError sends e as a plain text reply with the given status code, and
// returns true. If e is nil, nothing is sent and false is returned.
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	entry := log.WithField("status", statusCode)
	if statusCode >= http.StatusInternalServerError {
		entry.Errorf("request failed: %v", e)
	} else {
		entry.Warnf("request rejected: %v", e)
	}

	reply(w, statusCode, contentText, []byte(e.Error()+"\n"))
	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	reply(w, statusCode, contentText, append(body, '\n'))
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	body, err := json.Marshal(obj)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}
	reply(w, statusCode, contentJSON, append(body, '\n'))
}

// sendImageReply sends an image as a download named name.
func sendImageReply(image []byte, name string, w http.ResponseWriter) {
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name))
	reply(w, http.StatusOK, contentBinary, image)
}

//
func reply(w http.ResponseWriter, statusCode int, contentType string,
	body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}
