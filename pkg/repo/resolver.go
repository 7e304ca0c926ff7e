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

// Package repo resolves references to images kept in a local image
// repository.
package repo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const PrefixRepoRef = "repo://"

// ErrNoRepository is returned when resolving a reference while no image
// repository has been configured.
var ErrNoRepository = errors.New("image repository is not enabled")

// fileSource is a buffered image file.
type fileSource struct {
	*bufio.Reader
	io.Closer
}

//
func openFile(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{Reader: bufio.NewReader(f), Closer: f}, nil
}

// Resolve opens the image referenced by ref within repository repo. The
// reference must not point outside of the repository.
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	if repo == "" {
		return nil, ErrNoRepository
	}

	path, err := Path(ref, repo)
	if err != nil {
		return nil, err
	}

	return openFile(path)
}

// Path returns the file system path of the image referenced by ref.
func Path(ref, repo string) (string, error) {

	if !IsReference(ref) {
		return "", fmt.Errorf("unsupported reference: %s", ref)
	}

	rel := filepath.Clean(
		"/" + filepath.FromSlash(strings.TrimPrefix(ref, PrefixRepoRef)))
	if rel == string(filepath.Separator) {
		return "", fmt.Errorf("empty reference: %s", ref)
	}

	return filepath.Join(repo, rel), nil
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef)
}
