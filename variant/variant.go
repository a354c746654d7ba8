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

// Package variant turns an expanded miRNA alignment into VCF-style variant
// tuples anchored at absolute reference positions.
package variant

import (
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds means the reference window a read aligns to does not
	// fit inside its precursor.
	ErrOutOfBounds = errors.New("reference window out of bounds")
	// ErrUnanchored means an insertion or deletion opens at the first column,
	// where there is no base to anchor it to.
	ErrUnanchored = errors.New("indel at alignment start has no anchor base")
	// ErrReadLength means the read sequence does not match the read view of
	// its alignment.
	ErrReadLength = errors.New("read length does not match alignment")
	// ErrWindowLength means the reference window is shorter than the
	// reference view of the alignment.
	ErrWindowLength = errors.New("reference window shorter than alignment")
)

// Class is the broad category of a variant.
type Class int

const (
	// SNP is a single-base substitution.
	SNP Class = iota
	// Deletion removes one or more reference bases.
	Deletion
	// Insertion adds one or more read bases.
	Insertion
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case SNP:
		return "SNP"
	case Deletion:
		return "DEL"
	case Insertion:
		return "INS"
	}
	return "?"
}

// Type is the allele tag of a variant.  A substitution is tagged with its
// alternate base ("A"), a deletion with "D" and its length ("D2"), and an
// insertion with "I" plus the base, once per inserted base ("IAIC").
type Type string

// Class returns the category encoded in t.
func (t Type) Class() Class {
	if len(t) > 0 {
		switch t[0] {
		case 'D':
			return Deletion
		case 'I':
			return Insertion
		}
	}
	return SNP
}

func deletionType(n int) Type {
	return Type("D" + strconv.Itoa(n))
}

// Variant is one decoded difference between a read and the reference.  Pos is
// 1-based.  For indels, Ref and Alt include the preceding anchor base.
type Variant struct {
	Pos  int
	Type Type
	Ref  string
	Alt  string
}
