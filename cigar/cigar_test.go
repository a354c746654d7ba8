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
package cigar_test

import (
	"strings"
	"testing"

	"github.com/grailbio/mirvcf/cigar"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want cigar.Cigar
		str  string
	}{
		{"10M", cigar.Cigar{{Type: cigar.Match, Len: 10}}, "10M"},
		{"5M1A4M", cigar.Cigar{
			{Type: cigar.Match, Len: 5},
			{Type: cigar.Substitution, Len: 1, Base: 'A'},
			{Type: cigar.Match, Len: 4},
		}, "5MA4M"},
		{"M", cigar.Cigar{{Type: cigar.Match, Len: 1}}, "1M"},
		{"3MDD2MI", cigar.Cigar{
			{Type: cigar.Match, Len: 3},
			{Type: cigar.Deletion, Len: 1},
			{Type: cigar.Deletion, Len: 1},
			{Type: cigar.Match, Len: 2},
			{Type: cigar.Insertion, Len: 1},
		}, "3MDD2MI"},
		{"2M3M", cigar.Cigar{{Type: cigar.Match, Len: 5}}, "5M"},
		{"12MT", cigar.Cigar{
			{Type: cigar.Match, Len: 12},
			{Type: cigar.Substitution, Len: 1, Base: 'T'},
		}, "12MT"},
		{"3A", cigar.Cigar{
			{Type: cigar.Substitution, Len: 1, Base: 'A'},
			{Type: cigar.Substitution, Len: 1, Base: 'A'},
			{Type: cigar.Substitution, Len: 1, Base: 'A'},
		}, "AAA"},
		{"2M2D1M1I", cigar.Cigar{
			{Type: cigar.Match, Len: 2},
			{Type: cigar.Deletion, Len: 1},
			{Type: cigar.Deletion, Len: 1},
			{Type: cigar.Match, Len: 1},
			{Type: cigar.Insertion, Len: 1},
		}, "2MDD1MI"},
	}
	for _, tt := range tests {
		got, err := cigar.Parse(tt.in)
		assert.NoError(t, err, tt.in)
		expect.EQ(t, got, tt.want, tt.in)
		expect.EQ(t, got.String(), tt.str, tt.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"5X",
		"5M2",
		"0M",
		"0A",
		"2M0D",
		"5m",
		"10M1N",
		"99999999M",
	} {
		_, err := cigar.Parse(in)
		require.Error(t, err, in)
		expect.EQ(t, errors.Cause(err), cigar.ErrSyntax, in)
	}
}

func TestExpand(t *testing.T) {
	c, err := cigar.Parse("10M")
	assert.NoError(t, err)
	e := c.Expand()
	expect.EQ(t, e.Full.String(), strings.Repeat("M", 10))

	c, err = cigar.Parse("5M1A4M")
	assert.NoError(t, err)
	e = c.Expand()
	expect.EQ(t, e.Full.String(), "MMMMMAMMMM")
	expect.EQ(t, e.Read.String(), "MMMMMAMMMM")
	expect.EQ(t, e.Ref.String(), "MMMMMAMMMM")

	// An explicit count of one is the same as a bare edit symbol.
	c, err = cigar.Parse("5MA4M")
	assert.NoError(t, err)
	expect.EQ(t, c.Expand(), e)

	c, err = cigar.Parse("3MDD2MIC")
	assert.NoError(t, err)
	e = c.Expand()
	expect.EQ(t, e.Full.String(), "MMMDDMMIC")
	expect.EQ(t, e.Read.String(), "MMMMMIC")
	expect.EQ(t, e.Ref.String(), "MMMDDMMC")
}

func TestExpandViewLengths(t *testing.T) {
	for _, in := range []string{
		"22M", "5M1A4M", "3MDD2MI", "4MII10MD", "M", "2MAIDTM", "8MIII3MDDD",
	} {
		c, err := cigar.Parse(in)
		assert.NoError(t, err, in)
		e := c.Expand()
		nDel := e.Full.Count(cigar.SymDel)
		nIns := e.Full.Count(cigar.SymIns)
		expect.EQ(t, len(e.Read)+nDel, len(e.Full), in)
		expect.EQ(t, len(e.Ref)+nIns, len(e.Full), in)
		expect.EQ(t, len(e.Full), c.Len(), in)
		ref, read := c.Lengths()
		expect.EQ(t, ref, len(e.Ref), in)
		expect.EQ(t, read, len(e.Read), in)
	}
}
