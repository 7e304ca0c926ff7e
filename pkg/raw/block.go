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

// Package raw provides keyed access to the fields of binary container
// headers, all multi-byte values being little-endian.
package raw

import (
	"bytes"
	"encoding/binary"
)

// Field is the position and length of a field within a block.
type Field [2]int

// NewBlock wraps data with the given field index. Data is not copied.
func NewBlock(index map[string]Field, data []byte) *Block {
	return &Block{index: index, Data: data}
}

// Block is a header or table laid out according to a field index.
type Block struct {
	index map[string]Field
	Data  []byte
}

//
func (b *Block) GetByte(key string) byte {
	if s := b.GetSlice(key); len(s) == 1 {
		return s[0]
	}
	return 0
}

//
func (b *Block) SetByte(key string, v byte) {
	if s := b.GetSlice(key); len(s) == 1 {
		s[0] = v
	}
}

// GetSlice returns the bytes of a field. The slice shares the block's data.
func (b *Block) GetSlice(key string) []byte {
	if f, ok := b.index[key]; ok {
		start := f[0]
		end := start + f[1]
		if 0 <= start && end <= len(b.Data) {
			return b.Data[start:end]
		}
	}
	return []byte{}
}

// GetInt returns a 16 bit field, or -1 if the field is not 16 bit wide.
func (b *Block) GetInt(key string) int {
	s := b.GetSlice(key)
	if len(s) != 2 {
		return -1
	}
	return int(binary.LittleEndian.Uint16(s))
}

//
func (b *Block) SetInt(key string, v int) {
	if s := b.GetSlice(key); len(s) == 2 {
		binary.LittleEndian.PutUint16(s, uint16(v))
	}
}

// GetTableEntry returns the ix-th 32 bit entry of a table field.
func (b *Block) GetTableEntry(key string, ix int) uint32 {
	s := b.GetSlice(key)
	if ix < 0 || 4*ix+4 > len(s) {
		return 0
	}
	return binary.LittleEndian.Uint32(s[4*ix:])
}

//
func (b *Block) SetTableEntry(key string, ix int, v uint32) {
	s := b.GetSlice(key)
	if 0 <= ix && 4*ix+4 <= len(s) {
		binary.LittleEndian.PutUint32(s[4*ix:], v)
	}
}

//
func (b *Block) GetString(key string) string {
	return string(b.GetSlice(key))
}

// SetString copies s into a field, truncating or zero padding as needed.
func (b *Block) SetString(key, s string) {
	f := b.GetSlice(key)
	n := copy(f, s)
	for ix := n; ix < len(f); ix++ {
		f[ix] = 0
	}
}

// HasSignature tells whether a field holds exactly sig.
func (b *Block) HasSignature(key string, sig []byte) bool {
	s := b.GetSlice(key)
	return len(s) == len(sig) && bytes.Equal(s, sig)
}
