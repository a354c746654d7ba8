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
	"time"

	"github.com/grailbio/mirvcf/variant"
)

// Key identifies one variant site and allele across a run.  Indel lengths are
// part of Type, so a 1-base and a 2-base deletion at the same anchor are
// distinct keys.
type Key struct {
	Chrom string
	Pos   int
	Type  variant.Type
}

// Record is an aggregated variant.  Presence[i] is the number of
// contributing reads with a nonzero count in sample i, and Counts[i] is the
// sum of their raw counts.  Both are nil for records that don't carry
// per-sample data (indels, unless Opts.AggregateStructural is set).
type Record struct {
	Key
	ID     string
	Mirna  string
	Ref    string
	Alt    string
	Filter string
	Info   string

	Presence []int
	Counts   []int
}

// HasSamples reports whether r carries per-sample vectors.
func (r *Record) HasSamples() bool { return r.Counts != nil }

// recordMap owns the records of a run and remembers the order in which keys
// were first seen.
type recordMap struct {
	index map[Key]*Record
	order []*Record
}

func newRecordMap() recordMap {
	return recordMap{index: make(map[Key]*Record)}
}

func (m *recordMap) get(k Key) (*Record, bool) {
	r, ok := m.index[k]
	return r, ok
}

// insert adds r, which must not already be present.
func (m *recordMap) insert(r *Record) {
	if _, ok := m.index[r.Key]; ok {
		panic(r.Key)
	}
	m.index[r.Key] = r
	m.order = append(m.order, r)
}

func (m *recordMap) len() int { return len(m.order) }

// Totals maps a miRNA name to its accumulated per-sample raw counts.  It is
// the genotype denominator.
type Totals map[string][]int

// Get returns the totals for mirna, or nil.
func (t Totals) Get(mirna string) []int { return t[mirna] }

func (t Totals) add(mirna string, counts []int) {
	sum, ok := t[mirna]
	if !ok {
		t[mirna] = append([]int(nil), counts...)
		return
	}
	addInto(sum, counts)
}

func addInto(dst, src []int) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Document is the result of one run: the aggregated records in first-seen
// order plus what the VCF header needs.
type Document struct {
	// Source is the source-ontology string from the input header.
	Source string
	// Samples are the sample names, in column order.
	Samples []string
	// Date is when the run happened.
	Date    time.Time
	Records []*Record
	Totals  Totals
}
