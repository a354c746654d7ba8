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

// Package vcf writes aggregated miRNA variants as VCF 4.3 text.
package vcf

import (
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mirvcf/aggregate"
)

// Version is written to the ##fileformat line.
const Version = "VCFv4.3"

// Format is the FORMAT column of records with per-sample data: presence (the
// number of supporting reads with a nonzero count), raw read count, miRNA
// total and genotype.
const Format = "TRC:TSC:TMC:GT"

// Genotype calls.
const (
	HomRef = "0|0"
	HomAlt = "1|1"
	Het    = "1|0"
)

// Genotype returns the call for a variant seen in raw reads of a sample whose
// miRNA has total reads overall.
func Genotype(raw, total int) string {
	switch {
	case raw == 0:
		return HomRef
	case raw == total:
		return HomAlt
	default:
		return Het
	}
}

var metaLines = []string{
	`##INFO=<ID=NS,Number=1,Type=Integer,Description="Number of samples">`,
	`##FILTER=<ID=REJECT,Description="Filter not passed">`,
	`##FORMAT=<ID=TRC,Number=1,Type=Integer,Description="Total read count">`,
	`##FORMAT=<ID=TSC,Number=1,Type=Integer,Description="Total SNP count">`,
	`##FORMAT=<ID=TMC,Number=1,Type=Integer,Description="Total miRNA count">`,
	`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
}

const columns = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT"

// Write writes doc to w.  Records are written in doc order.  Records without
// per-sample data get neither a FORMAT nor sample columns.
func Write(w io.Writer, doc *aggregate.Document) (err error) {
	tw := tsv.NewWriter(w)
	if err = writeHeader(tw, doc); err != nil {
		return
	}
	for _, r := range doc.Records {
		if err = writeRecord(tw, r, doc.Totals.Get(r.Mirna)); err != nil {
			return
		}
	}
	return tw.Flush()
}

func writeHeader(tw *tsv.Writer, doc *aggregate.Document) error {
	lines := []string{
		"##fileformat=" + Version,
		"##fileDate=" + doc.Date.Format("20060102"),
		"##source=" + doc.Source,
	}
	lines = append(lines, metaLines...)
	for _, line := range lines {
		tw.WriteString(line)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	tw.WriteString(columns)
	for _, s := range doc.Samples {
		tw.WriteString(s)
	}
	return tw.EndLine()
}

func writeRecord(tw *tsv.Writer, r *aggregate.Record, totals []int) error {
	tw.WriteString(r.Chrom)
	tw.WriteString(strconv.Itoa(r.Pos))
	tw.WriteString(r.ID)
	tw.WriteString(r.Ref)
	tw.WriteString(r.Alt)
	tw.WriteByte('.')
	tw.WriteString(r.Filter)
	tw.WriteString(r.Info)
	if r.HasSamples() {
		tw.WriteString(Format)
		var sb strings.Builder
		for i, raw := range r.Counts {
			total := 0
			if i < len(totals) {
				total = totals[i]
			}
			sb.Reset()
			sb.WriteString(strconv.Itoa(r.Presence[i]))
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(raw))
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(total))
			sb.WriteByte(':')
			sb.WriteString(Genotype(raw, total))
			tw.WriteString(sb.String())
		}
	}
	return tw.EndLine()
}
