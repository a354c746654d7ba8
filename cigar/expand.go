// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cigar

// Symbol is one position of an expanded alignment.
type Symbol byte

const (
	// SymMatch marks a base shared by read and reference.
	SymMatch Symbol = 'M'
	// SymIns marks a base present only in the read.
	SymIns Symbol = 'I'
	// SymDel marks a base present only in the reference.
	SymDel Symbol = 'D'
)

// IsBase reports whether s is a substitution symbol, i.e. the read's base at
// a mismatching position.
func (s Symbol) IsBase() bool {
	switch s {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// Symbols is an expanded alignment view.
type Symbols []Symbol

// String returns the symbols as text, e.g. "MMMMMAMMMM".
func (s Symbols) String() string {
	b := make([]byte, len(s))
	for i, sym := range s {
		b[i] = byte(sym)
	}
	return string(b)
}

// Count returns the number of occurrences of sym in s.
func (s Symbols) Count(sym Symbol) int {
	n := 0
	for _, x := range s {
		if x == sym {
			n++
		}
	}
	return n
}

// Expanded holds one symbol per alignment column, and the two per-base views
// derived from it.
//
// Read omits SymDel and has one symbol per read base; Ref omits SymIns and has
// one symbol per reference-window base.  Consequently
// len(Read)+Full.Count(SymDel) == len(Ref)+Full.Count(SymIns) == len(Full).
type Expanded struct {
	Full Symbols
	Read Symbols
	Ref  Symbols
}

// Expand replaces every match run with that many SymMatch symbols and copies
// edit symbols through.
func (c Cigar) Expand() Expanded {
	ref, read := c.Lengths()
	e := Expanded{
		Full: make(Symbols, 0, c.Len()),
		Read: make(Symbols, 0, read),
		Ref:  make(Symbols, 0, ref),
	}
	for _, op := range c {
		var sym Symbol
		switch op.Type {
		case Match:
			sym = SymMatch
		case Substitution:
			sym = Symbol(op.Base)
		case Insertion:
			sym = SymIns
		case Deletion:
			sym = SymDel
		}
		for i := 0; i < op.Len; i++ {
			e.Full = append(e.Full, sym)
			if sym != SymDel {
				e.Read = append(e.Read, sym)
			}
			if sym != SymIns {
				e.Ref = append(e.Ref, sym)
			}
		}
	}
	return e
}
