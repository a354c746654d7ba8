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
package vcf_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/grailbio/mirvcf/aggregate"
	"github.com/grailbio/mirvcf/encoding/vcf"
	"github.com/grailbio/mirvcf/variant"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestGenotype(t *testing.T) {
	for _, tt := range []struct {
		raw, total int
		want       string
	}{
		{0, 0, "0|0"},
		{0, 10, "0|0"},
		{10, 10, "1|1"},
		{3, 10, "1|0"},
		{1, 2, "1|0"},
	} {
		expect.EQ(t, vcf.Genotype(tt.raw, tt.total), tt.want, tt)
	}
}

func TestWrite(t *testing.T) {
	a := aggregate.New(2, aggregate.Opts{})
	src := aggregate.Source{Chrom: "chr9", Mirna: "let-7a", Filter: "Pass", Counts: []int{4, 0}}
	assert.NoError(t, a.Add(src, []variant.Variant{
		{Pos: 106, Type: "A", Ref: "T", Alt: "A"},
		{Pos: 104, Type: "D1", Ref: "GT", Alt: "G"},
	}))
	src.Counts = []int{2, 3}
	assert.NoError(t, a.Add(src, []variant.Variant{
		{Pos: 110, Type: "C", Ref: "G", Alt: "C"},
	}))
	doc := a.Document("miRNA_primary_transcript", []string{"s1", "s2"})
	doc.Date = time.Date(2020, 1, 2, 15, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	assert.NoError(t, vcf.Write(&buf, doc))
	want := strings.Join([]string{
		"##fileformat=VCFv4.3",
		"##fileDate=20200102",
		"##source=miRNA_primary_transcript",
		`##INFO=<ID=NS,Number=1,Type=Integer,Description="Number of samples">`,
		`##FILTER=<ID=REJECT,Description="Filter not passed">`,
		`##FORMAT=<ID=TRC,Number=1,Type=Integer,Description="Total read count">`,
		`##FORMAT=<ID=TSC,Number=1,Type=Integer,Description="Total SNP count">`,
		`##FORMAT=<ID=TMC,Number=1,Type=Integer,Description="Total miRNA count">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2",
		"chr9\t106\tlet-7a-SNP1\tT\tA\t.\tPass\tNS=2\tTRC:TSC:TMC:GT\t1:4:6:1|0\t0:0:3:0|0",
		"chr9\t104\tlet-7a-nonSNP1\tGT\tG\t.\tPass\tNS=2",
		"chr9\t110\tlet-7a-SNP2\tG\tC\t.\tPass\tNS=2\tTRC:TSC:TMC:GT\t1:2:6:1|0\t1:3:3:1|1",
		"",
	}, "\n")
	expect.EQ(t, buf.String(), want)
}

func TestWriteEmpty(t *testing.T) {
	doc := &aggregate.Document{Source: "x", Date: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)}
	var buf bytes.Buffer
	assert.NoError(t, vcf.Write(&buf, doc))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.EQ(t, len(lines), 10)
	expect.EQ(t, lines[1], "##fileDate=20191231")
	expect.EQ(t, lines[9], "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
}

func TestWriteStructuralWithSamples(t *testing.T) {
	// Indel records may carry samples when structural aggregation is on, but
	// their miRNA may have no SNP totals.
	a := aggregate.New(1, aggregate.Opts{AggregateStructural: true})
	src := aggregate.Source{Chrom: "chr1", Mirna: "m", Filter: "Pass", Counts: []int{5}}
	assert.NoError(t, a.Add(src, []variant.Variant{{Pos: 7, Type: "IA", Ref: "G", Alt: "GA"}}))
	doc := a.Document("", []string{"s"})
	var buf bytes.Buffer
	assert.NoError(t, vcf.Write(&buf, doc))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	expect.EQ(t, lines[len(lines)-1], "chr1\t7\tm-nonSNP1\tG\tGA\t.\tPass\tNS=1\tTRC:TSC:TMC:GT\t1:5:0:1|0")
}

func TestWriteNoSamples(t *testing.T) {
	a := aggregate.New(0, aggregate.Opts{})
	src := aggregate.Source{Chrom: "chr1", Mirna: "m", Filter: "Pass"}
	assert.NoError(t, a.Add(src, []variant.Variant{
		{Pos: 106, Type: "A", Ref: "T", Alt: "A"},
		{Pos: 104, Type: "D1", Ref: "GT", Alt: "G"},
	}))
	doc := a.Document("", nil)
	var buf bytes.Buffer
	assert.NoError(t, vcf.Write(&buf, doc))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.EQ(t, len(lines), 12)
	expect.EQ(t, lines[10], "chr1\t106\tm-SNP1\tT\tA\t.\tPass\tNS=0\tTRC:TSC:TMC:GT")
	expect.EQ(t, lines[11], "chr1\t104\tm-nonSNP1\tGT\tG\t.\tPass\tNS=0")
}
