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

package repo

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "games"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(
		filepath.Join(dir, "games", "disk.d64"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := Resolve("repo://games/disk.d64", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, err := ioutil.ReadAll(rc)
	if err != nil || string(data) != "data" {
		t.Errorf("unexpected content: '%s', %v", data, err)
	}

	if _, err := Resolve("repo://games/disk.d64", ""); err != ErrNoRepository {
		t.Errorf("want ErrNoRepository, got %v", err)
	}

	for _, tc := range []struct {
		name string
		ref  string
		repo string
	}{
		{"no repository", "repo://games/disk.d64", ""},
		{"no reference", "games/disk.d64", dir},
		{"empty", "repo://", dir},
		{"missing", "repo://games/other.d64", dir},
		{"outside", "repo://../../etc/passwd", dir},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if rc, err := Resolve(tc.ref, tc.repo); err == nil {
				rc.Close()
				t.Errorf("expected error")
			}
		})
	}
}

func TestPath(t *testing.T) {
	p, err := Path("repo://../a/../../b.g64", "/images")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join("/images", "b.g64"); p != want {
		t.Errorf("want %s, got %s", want, p)
	}
}
