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

// Package export converts mirGFF3 isomiR annotations to VCF.  Each input is
// one independent run: its reads are decoded into variants against the
// precursor sequences, aggregated, and written once at the end.
//
// A variant's position is the precursor's genomic start plus its offset in
// the precursor, whatever the precursor's strand.  Minus-strand miRNAs
// therefore get positions counted from the low genomic end, and REF/ALT in
// transcript orientation; see mirbase.Mapping.
package export

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/mirvcf/aggregate"
	"github.com/grailbio/mirvcf/cigar"
	"github.com/grailbio/mirvcf/encoding/fasta"
	"github.com/grailbio/mirvcf/encoding/mirbase"
	"github.com/grailbio/mirvcf/encoding/mirgff"
	"github.com/grailbio/mirvcf/interval"
	"github.com/grailbio/mirvcf/variant"
	"github.com/pkg/errors"
)

// References holds the read-only tables shared by all runs.
type References struct {
	// Hairpins holds the precursor sequences, DNA-encoded.
	Hairpins fasta.Fasta
	Coords   *mirbase.Coords
	// Regions restricts output to the given intervals.  Nil means no
	// restriction.
	Regions *interval.BEDUnion
}

// LoadReferences loads the tables named in opts.
func LoadReferences(ctx context.Context, opts Opts) (*References, error) {
	refs := &References{}
	err := traverse.Each(2, func(i int) (err error) {
		switch i {
		case 0:
			refs.Hairpins, err = fasta.Load(ctx, opts.HairpinPath, fasta.OptEncoding(fasta.DNA))
		case 1:
			refs.Coords, err = mirbase.Load(ctx, opts.GTFPath)
		}
		return
	})
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d precursor sequences, %d miRNA locations on %d precursors",
		len(refs.Hairpins.SeqNames()), refs.Coords.Len(), refs.Coords.Precursors())
	var regions interval.BEDUnion
	switch {
	case opts.BedPath != "":
		bedOpts := interval.NewBEDOpts{Invert: opts.ExcludeRegions, OneBasedInput: opts.BedOneBased}
		if regions, err = interval.NewBEDUnionFromPath(ctx, opts.BedPath, bedOpts); err != nil {
			return nil, err
		}
		refs.Regions = &regions
	case opts.Region != "":
		var entry interval.Entry
		if entry, err = interval.ParseRegionString(opts.Region); err != nil {
			return nil, err
		}
		bedOpts := interval.NewBEDOpts{Invert: opts.ExcludeRegions}
		if regions, err = interval.NewBEDUnionFromEntries([]interval.Entry{entry}, bedOpts); err != nil {
			return nil, err
		}
		refs.Regions = &regions
	}
	if refs.Regions != nil {
		log.Printf("region filter covers %d chromosomes (exclude=%v)", refs.Regions.Chromosomes(), opts.ExcludeRegions)
	}
	return refs, nil
}

// Convert reads one mirGFF3 document from in and aggregates its variants.
// Records that can't be decoded are reported in the Report and otherwise
// ignored; only a failure to read in is returned as an error.
func Convert(ctx context.Context, refs *References, in io.Reader, opts Opts) (*aggregate.Document, *Report, error) {
	r, err := mirgff.NewReader(in)
	if err != nil {
		return nil, nil, err
	}
	header := r.Header()
	samples := header.Samples
	report := &Report{}
	var regions *interval.BEDUnion
	if refs.Regions != nil {
		clone := refs.Regions.Clone()
		regions = &clone
	}
	var agg *aggregate.Aggregator
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		report.Reads++
		if err != nil {
			if errors.Cause(err) != mirgff.ErrMalformed {
				return nil, nil, err
			}
			report.fail(r.Line(), "", err)
			continue
		}
		m, ok := refs.Coords.Lookup(rec.Parent, rec.Name)
		if !ok {
			log.Debug.Printf("line %d: %s on %s is not in the coordinate table", rec.Line, rec.Name, rec.Parent)
			report.Skipped++
			continue
		}
		hairpin, ok := refs.Hairpins.Seq(rec.Parent)
		if !ok {
			log.Debug.Printf("line %d: no sequence for precursor %s", rec.Line, rec.Parent)
			report.Skipped++
			continue
		}
		vs, err := decodeRecord(rec, hairpin, m)
		if err != nil {
			report.fail(rec.Line, rec.Name, err)
			continue
		}
		if len(vs) == 0 {
			report.NoVariant++
		}
		if regions != nil {
			vs = filterRegions(regions, m.Chrom, vs, &report.Filtered)
		}
		if agg == nil {
			if samples == nil {
				samples = defaultSampleNames(len(rec.Expression))
			}
			agg = aggregate.New(len(samples), opts.Aggregate)
		}
		src := aggregate.Source{
			Chrom:  m.Chrom,
			Mirna:  rec.Name,
			Filter: rec.Filter,
			Counts: rec.Expression,
		}
		if err := agg.Add(src, vs); err != nil {
			report.fail(rec.Line, rec.Name, err)
		}
	}
	if agg == nil {
		agg = aggregate.New(len(samples), opts.Aggregate)
	}
	stats := agg.Stats()
	report.SNP, report.NonSNP = stats.SNP, stats.NonSNP
	doc := agg.Document(header.Source, samples)
	doc.Date = opts.Date
	if doc.Date.IsZero() {
		doc.Date = time.Now()
	}
	return doc, report, nil
}

// decodeRecord returns the variants carried by one read.
func decodeRecord(rec *mirgff.Record, hairpin string, m mirbase.Mapping) ([]variant.Variant, error) {
	c, err := cigar.Parse(rec.Cigar)
	if err != nil {
		return nil, err
	}
	e := c.Expand()
	w, err := variant.ResolveWindow(hairpin, m.MatureStart, rec.Trim, len(e.Ref))
	if err != nil {
		return nil, err
	}
	return variant.Decode(e, rec.Read, w.Seq, m.Offset+w.Start)
}

func filterRegions(regions *interval.BEDUnion, chrom string, vs []variant.Variant, nFiltered *int) []variant.Variant {
	kept := vs[:0]
	for _, v := range vs {
		if regions.ContainsVCFPos(chrom, v.Pos) {
			kept = append(kept, v)
		} else {
			*nFiltered++
		}
	}
	return kept
}

// defaultSampleNames names n samples when the input has no COLDATA line.
func defaultSampleNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "sample" + strconv.Itoa(i+1)
	}
	return names
}
