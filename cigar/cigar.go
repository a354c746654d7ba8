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

// Package cigar decodes the compact alignment strings attached to mirGFF3
// records.  Unlike SAM CIGARs, these only carry digit-prefixed match runs
// ("<n>M") and single-base edit symbols: a literal A/C/G/T for a mismatch
// (the read's base), I for an inserted read base and D for a deleted
// reference base.  For example "5M1A4M" is five matches, one mismatch where
// the read carries an A, and four more matches.
package cigar

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// ErrSyntax is the cause of every error returned by Parse.
var ErrSyntax = errors.New("invalid cigar")

// maxRunLen bounds a single match run.  miRNA reads are ~22nt; anything close
// to this is a corrupt field rather than an alignment.
const maxRunLen = 1 << 20

// OpType is the kind of a single alignment operation.
type OpType byte

const (
	// Match is a run of bases identical in read and reference.
	Match OpType = iota
	// Substitution is one read base that differs from the reference.
	Substitution
	// Insertion is one base present in the read but not in the reference.
	Insertion
	// Deletion is one reference base missing from the read.
	Deletion
)

// String implements fmt.Stringer.
func (t OpType) String() string {
	switch t {
	case Match:
		return "M"
	case Substitution:
		return "X"
	case Insertion:
		return "I"
	case Deletion:
		return "D"
	}
	return "?"
}

// Consumes reports whether the operation takes up read and reference bases,
// respectively.
func (t OpType) Consumes() (read, ref bool) {
	switch t {
	case Match, Substitution:
		return true, true
	case Insertion:
		return true, false
	case Deletion:
		return false, true
	}
	return false, false
}

// Op is one alignment operation.  Len is always 1 for the edit types; Base is
// set only for Substitution.
type Op struct {
	Type OpType
	Len  int
	Base byte
}

// String implements fmt.Stringer, using the same encoding Parse accepts.
func (op Op) String() string {
	switch op.Type {
	case Match:
		return strconv.Itoa(op.Len) + "M"
	case Substitution:
		return string(op.Base)
	}
	return op.Type.String()
}

// Cigar is a parsed alignment string.
type Cigar []Op

// Parse tokenizes s.  A bare symbol is a run of one; "<n>M" is an n-base
// match and "<n>A" (or any other edit symbol) is n single-base edits, so
// "5M1A4M" and "5MA4M" parse the same.  Counts must be positive, and anything
// outside [0-9MACGTID] is rejected.  Adjacent match runs are merged.
func Parse(s string) (Cigar, error) {
	if len(s) == 0 {
		return nil, errors.Wrap(ErrSyntax, "empty string")
	}
	c := make(Cigar, 0, 4)
	n := 0
	nDigits := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			n = n*10 + int(ch-'0')
			nDigits++
			if n > maxRunLen {
				return nil, errors.Wrapf(ErrSyntax, "%q: run too long at offset %d", s, i)
			}
			continue
		}
		runLen := 1
		if nDigits > 0 {
			if n == 0 {
				return nil, errors.Wrapf(ErrSyntax, "%q: zero-length run at offset %d", s, i)
			}
			runLen = n
		}
		n, nDigits = 0, 0
		var op Op
		switch ch {
		case 'M':
			if last := len(c) - 1; last >= 0 && c[last].Type == Match {
				c[last].Len += runLen
			} else {
				c = append(c, Op{Type: Match, Len: runLen})
			}
			continue
		case 'A', 'C', 'G', 'T':
			op = Op{Type: Substitution, Len: 1, Base: ch}
		case 'I':
			op = Op{Type: Insertion, Len: 1}
		case 'D':
			op = Op{Type: Deletion, Len: 1}
		default:
			return nil, errors.Wrapf(ErrSyntax, "%q: unexpected symbol %q at offset %d", s, ch, i)
		}
		// A counted edit symbol stands for that many single-base edits.
		for j := 0; j < runLen; j++ {
			c = append(c, op)
		}
	}
	if nDigits > 0 {
		return nil, errors.Wrapf(ErrSyntax, "%q: trailing count", s)
	}
	return c, nil
}

// String returns the canonical encoding of c.
func (c Cigar) String() string {
	var b bytes.Buffer
	for _, op := range c {
		b.WriteString(op.String())
	}
	return b.String()
}

// Len returns the number of expanded symbols, i.e. the sum of all match runs
// plus the number of edit symbols.
func (c Cigar) Len() int {
	n := 0
	for _, op := range c {
		n += op.Len
	}
	return n
}

// Lengths returns the number of reference and read bases described by c.
func (c Cigar) Lengths() (ref, read int) {
	for _, op := range c {
		consRead, consRef := op.Type.Consumes()
		if consRead {
			read += op.Len
		}
		if consRef {
			ref += op.Len
		}
	}
	return ref, read
}
