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
package aggregate

import (
	"bytes"
	"testing"
	"time"

	"github.com/grailbio/mirvcf/variant"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestRioRoundTrip(t *testing.T) {
	a := New(2, Opts{})
	assert.NoError(t, a.Add(src("m1", 3, 0), []variant.Variant{snpA, del1}))
	assert.NoError(t, a.Add(src("m2", 1, 1), []variant.Variant{insIC, snpC}))
	doc := a.Document("miRNA_primary_transcript", []string{"s1", "s2"})
	doc.Date = time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	assert.NoError(t, WriteRio(&buf, doc))
	got, err := ReadRio(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	expect.EQ(t, got.Source, doc.Source)
	expect.EQ(t, got.Samples, doc.Samples)
	expect.True(t, got.Date.Equal(doc.Date))
	assert.EQ(t, len(got.Records), len(doc.Records))
	for i, r := range got.Records {
		expect.EQ(t, *r, *doc.Records[i])
		expect.EQ(t, r.HasSamples(), doc.Records[i].HasSamples())
	}
	expect.EQ(t, got.Totals.Get("m1"), []int{3, 0})
	expect.EQ(t, got.Totals.Get("m2"), []int{1, 1})
}

func TestRioNoSamples(t *testing.T) {
	a := New(0, Opts{})
	assert.NoError(t, a.Add(Source{Chrom: "chr1", Mirna: "m"}, []variant.Variant{snpA}))
	doc := a.Document("", nil)

	var buf bytes.Buffer
	assert.NoError(t, WriteRio(&buf, doc))
	got, err := ReadRio(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	expect.EQ(t, len(got.Samples), 0)
	assert.EQ(t, len(got.Records), 1)
	// A zero-sample SNP still has (empty) per-sample vectors.
	expect.True(t, got.Records[0].HasSamples())
}

func TestRioTrailer(t *testing.T) {
	n, sum, err := parseRioTrailer(rioTrailer(42, 0xdeadbeef))
	assert.NoError(t, err)
	expect.EQ(t, n, int64(42))
	expect.EQ(t, sum, uint64(0xdeadbeef))

	b := rioTrailer(1, 2)
	b[0] = 9
	_, _, err = parseRioTrailer(b)
	require.Error(t, err)
}
