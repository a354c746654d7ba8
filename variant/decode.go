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
package variant

import (
	"github.com/grailbio/mirvcf/cigar"
	"github.com/pkg/errors"
)

// Window is the slice of a precursor a read aligns to.
type Window struct {
	// Start is the 0-based offset of the window in the precursor.
	Start int
	Seq   string
}

// ResolveWindow returns the length-n substring of precursor starting at
// offset+trim, where offset is the canonical start of the read's miRNA on the
// precursor and trim is the read's signed 5' shift (iso_5p).  n is normally
// the length of the alignment's reference view.  Windows that do not fit in
// the precursor fail with ErrOutOfBounds; they are never truncated.
func ResolveWindow(precursor string, offset, trim, n int) (Window, error) {
	start := offset + trim
	end := start + n
	if start < 0 || n < 0 || end > len(precursor) {
		return Window{}, errors.Wrapf(ErrOutOfBounds, "window [%d,%d) on precursor of length %d",
			start, end, len(precursor))
	}
	return Window{Start: start, Seq: precursor[start:end]}, nil
}

// Decode walks the expanded alignment e and returns its variants.  read is the
// read sequence (one base per e.Read symbol), ref is the reference window (at
// least one base per e.Ref symbol) and anchor is the 0-based absolute
// position of the first window base.  Returned positions are 1-based.
//
// Substitutions and deletions are found in a first pass over e.Ref, and
// insertions in a second pass over e.Read, so all deletions and substitutions
// precede all insertions in the result, regardless of position.  Adjacent
// deletion (insertion) symbols are merged into one multi-base record.
func Decode(e cigar.Expanded, read, ref string, anchor int) ([]Variant, error) {
	if len(read) != len(e.Read) {
		return nil, errors.Wrapf(ErrReadLength, "read has %d bases, alignment %d", len(read), len(e.Read))
	}
	if len(ref) < len(e.Ref) {
		return nil, errors.Wrapf(ErrWindowLength, "window has %d bases, alignment %d", len(ref), len(e.Ref))
	}
	var vs []Variant
	// k corrects read-view indices for insertions already consumed.  It only
	// changes during the insertion pass.
	k := 0
	delLen := 0
	for i, sym := range e.Ref {
		switch {
		case sym.IsBase():
			vs = append(vs, Variant{
				Pos:  anchor + i + 1 + k,
				Type: Type(sym),
				Ref:  ref[i : i+1],
				Alt:  string(sym),
			})
		case sym == cigar.SymDel:
			if i == 0 {
				return nil, errors.Wrap(ErrUnanchored, "deletion at column 0")
			}
			if e.Ref[i-1] == cigar.SymDel {
				delLen++
				last := &vs[len(vs)-1]
				last.Ref += ref[i : i+1]
				last.Type = deletionType(delLen)
				continue
			}
			delLen = 1
			vs = append(vs, Variant{
				Pos:  anchor + i + k,
				Type: deletionType(delLen),
				Ref:  ref[i-1 : i+1],
				Alt:  ref[i-1 : i],
			})
		}
	}
	for i, sym := range e.Read {
		if sym != cigar.SymIns {
			continue
		}
		if i == 0 {
			return nil, errors.Wrap(ErrUnanchored, "insertion at column 0")
		}
		base := read[i : i+1]
		if e.Read[i-1] == cigar.SymIns {
			last := &vs[len(vs)-1]
			last.Alt += base
			last.Type += Type("I" + base)
		} else {
			vs = append(vs, Variant{
				Pos:  anchor + i + k,
				Type: Type("I" + base),
				Ref:  read[i-1 : i],
				Alt:  read[i-1 : i+1],
			})
		}
		k--
	}
	return vs, nil
}
