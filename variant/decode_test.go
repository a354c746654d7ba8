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
package variant_test

import (
	"testing"

	"github.com/grailbio/mirvcf/cigar"
	"github.com/grailbio/mirvcf/variant"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const precursor = "TGAGGTAGTAGGTTGTATAGTTTTAGGGTCACACCCACCACTGGGAGATAACTATACAATCTACTGTCTTTCC"

func expand(t *testing.T, s string) cigar.Expanded {
	c, err := cigar.Parse(s)
	assert.NoError(t, err, s)
	return c.Expand()
}

func TestResolveWindow(t *testing.T) {
	w, err := variant.ResolveWindow(precursor, 5, 0, 10)
	assert.NoError(t, err)
	expect.EQ(t, w.Start, 5)
	expect.EQ(t, w.Seq, precursor[5:15])

	w, err = variant.ResolveWindow(precursor, 5, -2, 4)
	assert.NoError(t, err)
	expect.EQ(t, w.Start, 3)
	expect.EQ(t, w.Seq, precursor[3:7])

	w, err = variant.ResolveWindow(precursor, 0, 0, len(precursor))
	assert.NoError(t, err)
	expect.EQ(t, w.Seq, precursor)

	for _, tt := range []struct{ offset, trim, n int }{
		{0, -1, 5},
		{len(precursor) - 3, 0, 4},
		{len(precursor) - 3, 2, 2},
	} {
		_, err := variant.ResolveWindow(precursor, tt.offset, tt.trim, tt.n)
		require.Error(t, err)
		expect.EQ(t, errors.Cause(err), variant.ErrOutOfBounds)
	}
}

func TestDecodeSNP(t *testing.T) {
	const windowStart = 100
	ref := "TGAGGTAGTA"
	read := "TGAGGAAGTA"
	vs, err := variant.Decode(expand(t, "5M1A4M"), read, ref, windowStart)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: windowStart + 6, Type: "A", Ref: "T", Alt: "A"},
	})
	expect.EQ(t, vs[0].Type.Class(), variant.SNP)
}

func TestDecodeNoVariants(t *testing.T) {
	vs, err := variant.Decode(expand(t, "10M"), "TGAGGTAGTA", "TGAGGTAGTA", 7)
	assert.NoError(t, err)
	expect.EQ(t, len(vs), 0)
}

func TestDecodeDeletion(t *testing.T) {
	// ref:  TGAGG TA GTA
	// read: TGAGG -- GTA
	ref := "TGAGGTAGTA"
	vs, err := variant.Decode(expand(t, "5MD4M"), "TGAGGAGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "D1", Ref: "GT", Alt: "G"},
	})

	vs, err = variant.Decode(expand(t, "5MDD3M"), "TGAGGGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "D2", Ref: "GTA", Alt: "G"},
	})
	expect.EQ(t, vs[0].Type.Class(), variant.Deletion)

	// A counted deletion is the same run.
	vs, err = variant.Decode(expand(t, "5M2D3M"), "TGAGGGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "D2", Ref: "GTA", Alt: "G"},
	})

	vs, err = variant.Decode(expand(t, "5MDDD2M"), "TGAGGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "D3", Ref: "GTAG", Alt: "G"},
	})
}

func TestDecodeInsertion(t *testing.T) {
	ref := "TGAGGTAGTA"
	vs, err := variant.Decode(expand(t, "5MI5M"), "TGAGGCTAGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "IC", Ref: "G", Alt: "GC"},
	})
	expect.EQ(t, vs[0].Type.Class(), variant.Insertion)

	vs, err = variant.Decode(expand(t, "5MII5M"), "TGAGGCATAGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 15, Type: "ICIA", Ref: "G", Alt: "GCA"},
	})

	// A second, separate insertion is shifted back by the first.
	vs, err = variant.Decode(expand(t, "2MI3MI5M"), "TGCAGGATAGTA", ref, 10)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 12, Type: "IC", Ref: "G", Alt: "GC"},
		{Pos: 15, Type: "IA", Ref: "G", Alt: "GA"},
	})
}

func TestDecodeOrdering(t *testing.T) {
	// The insertion precedes the SNP on the reference but is reported last.
	ref := "TGAGGTAGTA"
	read := "TGCAGGTAGCA"
	vs, err := variant.Decode(expand(t, "2MI6MC1M"), read, ref, 0)
	assert.NoError(t, err)
	expect.EQ(t, vs, []variant.Variant{
		{Pos: 9, Type: "C", Ref: "T", Alt: "C"},
		{Pos: 2, Type: "IC", Ref: "G", Alt: "GC"},
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		cigar, read, ref string
		want             error
	}{
		{"D5M", "TGAGG", "TTGAGG", variant.ErrUnanchored},
		{"I5M", "ATGAGG", "TGAGG", variant.ErrUnanchored},
		{"5M", "TGAG", "TGAGG", variant.ErrReadLength},
		{"5M", "TGAGG", "TGAG", variant.ErrWindowLength},
	}
	for _, tt := range tests {
		_, err := variant.Decode(expand(t, tt.cigar), tt.read, tt.ref, 10)
		require.Error(t, err, tt.cigar)
		expect.EQ(t, errors.Cause(err), tt.want, tt.cigar)
	}
}

func TestDecodePositionsPositive(t *testing.T) {
	ref := "TGAGGTAGTAGG"
	for _, tt := range []struct{ cigar, read string }{
		{"AMMMMMMMMMMM", "AGAGGTAGTAGG"},
		{"MD10M", "TAGGTAGTAGG"},
		{"MI11M", "TCGAGGTAGTAGG"},
		{"MIIDD9M", "TCCGGTAGTAGG"},
		{"MIAMIC8M", "TCAATCCTAGTAGG"},
	} {
		vs, err := variant.Decode(expand(t, tt.cigar), tt.read, ref, 0)
		assert.NoError(t, err, tt.cigar)
		assert.True(t, len(vs) > 0, tt.cigar)
		for _, v := range vs {
			expect.True(t, v.Pos > 0, tt.cigar, v)
		}
	}
}
