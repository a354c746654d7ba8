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

// Package aggregate merges the variants decoded from many reads and samples
// into one deduplicated record per (chromosome, position, allele).
package aggregate

import (
	"strconv"

	"github.com/grailbio/mirvcf/variant"
	"github.com/pkg/errors"
)

// ErrSampleCount means a read's expression vector does not have one entry
// per sample.
var ErrSampleCount = errors.New("expression vector length does not match sample count")

// Opts controls the two aggregation rules whose intent is unsettled.  The zero
// value reproduces the established behavior.
type Opts struct {
	// AggregateStructural makes insertion and deletion records carry
	// per-sample vectors that are summed over repeated occurrences, like
	// SNPs.  Otherwise only the first occurrence of an indel is recorded.
	AggregateStructural bool
	// TotalsFromAllReads adds every read's counts to its miRNA's totals once.
	// Otherwise totals grow by the read's counts once per SNP it carries, and
	// reads without SNPs don't contribute.
	TotalsFromAllReads bool
}

// Source describes the read a batch of variants was decoded from.
type Source struct {
	Chrom  string
	Mirna  string
	Filter string
	// Counts holds the raw read count in each sample.
	Counts []int
}

// Stats counts the distinct records created so far.
type Stats struct {
	SNP    int
	NonSNP int
}

// Aggregator accumulates variants over one run.  It is not thread-safe.
type Aggregator struct {
	opts     Opts
	nSamples int
	info     string
	records  recordMap
	totals   Totals
	stats    Stats
}

// New creates an Aggregator for reads carrying nSamples counts each.
func New(nSamples int, opts Opts) *Aggregator {
	return &Aggregator{
		opts:     opts,
		nSamples: nSamples,
		info:     "NS=" + strconv.Itoa(nSamples),
		records:  newRecordMap(),
		totals:   make(Totals),
	}
}

// Add merges the variants decoded from one read.  Reads without variants
// should still be added, since they may contribute to totals.
func (a *Aggregator) Add(src Source, vs []variant.Variant) error {
	if len(src.Counts) != a.nSamples {
		return errors.Wrapf(ErrSampleCount, "%s: got %d counts, want %d", src.Mirna, len(src.Counts), a.nSamples)
	}
	presence := make([]int, len(src.Counts))
	for i, c := range src.Counts {
		if c > 0 {
			presence[i] = 1
		}
	}
	if a.opts.TotalsFromAllReads {
		a.totals.add(src.Mirna, src.Counts)
	}
	for _, v := range vs {
		isSNP := v.Type.Class() == variant.SNP
		if isSNP && !a.opts.TotalsFromAllReads {
			a.totals.add(src.Mirna, src.Counts)
		}
		key := Key{Chrom: src.Chrom, Pos: v.Pos, Type: v.Type}
		if r, ok := a.records.get(key); ok {
			if r.HasSamples() {
				addInto(r.Presence, presence)
				addInto(r.Counts, src.Counts)
			}
			continue
		}
		r := &Record{
			Key:    key,
			Mirna:  src.Mirna,
			Ref:    v.Ref,
			Alt:    v.Alt,
			Filter: src.Filter,
			Info:   a.info,
		}
		if isSNP {
			a.stats.SNP++
			r.ID = src.Mirna + "-SNP" + strconv.Itoa(a.stats.SNP)
		} else {
			a.stats.NonSNP++
			r.ID = src.Mirna + "-nonSNP" + strconv.Itoa(a.stats.NonSNP)
		}
		if isSNP || a.opts.AggregateStructural {
			r.Presence = copyInts(presence)
			r.Counts = copyInts(src.Counts)
		}
		a.records.insert(r)
	}
	return nil
}

// Stats returns the number of records created so far, per class.
func (a *Aggregator) Stats() Stats { return a.stats }

// Len returns the number of distinct records.
func (a *Aggregator) Len() int { return a.records.len() }

// Document returns the aggregated records.  The Aggregator must not be used
// afterwards.
func (a *Aggregator) Document(source string, samples []string) *Document {
	return &Document{
		Source:  source,
		Samples: samples,
		Records: a.records.order,
		Totals:  a.totals,
	}
}

// copyInts returns a copy of v that is non-nil even when v is empty, since a
// nil vector marks a record without samples.
func copyInts(v []int) []int {
	c := make([]int, len(v))
	copy(c, v)
	return c
}
