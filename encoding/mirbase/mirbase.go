// Package mirbase reads miRBase genome coordinate files (e.g. hsa.gff3) and
// answers where each mature miRNA sits on its precursor, and where the
// precursor sits on the genome.
//
// Mature offsets are counted from the precursor's 5' end on either strand,
// so they index the hairpin sequence directly.  Genomic positions are not
// strand-aware: Mapping.Offset+i+1 is the genomic coordinate of precursor
// base i only on the plus strand.  On the minus strand it is the
// coordinate of the base i positions after the precursor's lowest genomic
// coordinate, and alleles stay in precursor (transcript) orientation.
package mirbase

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

const (
	precursorType = "miRNA_primary_transcript"
	matureType    = "miRNA"
)

// gffRecord is one line of a miRBase GFF3 file.
type gffRecord struct {
	Chrom    string
	Source   string
	Molecule string
	Start    int
	Stop     int
	Score    string
	Strand   string
	Frame    string
	Fields   string
}

// Mapping locates a mature miRNA.
type Mapping struct {
	// Chrom is the precursor's chromosome.
	Chrom string
	// Offset is the precursor's genomic start minus one.  On the plus strand
	// precursor base i (0-based) is at genomic position Offset+i+1; on the
	// minus strand that base is at the precursor's end minus i, but positions
	// are still reported as Offset+i+1.
	Offset int
	// MatureStart is the 0-based start of the miRNA on the precursor,
	// counted from the precursor's 5' end.
	MatureStart int
	// MatureEnd is the 0-based, exclusive end of the miRNA on the precursor.
	MatureEnd int
	Strand    byte
}

type precursor struct {
	name        string
	chrom       string
	start, stop int
	strand      byte
}

// Coords maps (precursor name, miRNA name) to a Mapping.  It is read-only
// once built, and safe for concurrent use.
type Coords struct {
	mappings map[string]map[string]Mapping
}

// Lookup returns the location of mirna on the precursor named precursor.
func (c *Coords) Lookup(precursor, mirna string) (Mapping, bool) {
	m, ok := c.mappings[precursor][mirna]
	return m, ok
}

// Len returns the number of (precursor, miRNA) pairs.
func (c *Coords) Len() int {
	n := 0
	for _, m := range c.mappings {
		n += len(m)
	}
	return n
}

// Precursors returns the number of precursors with at least one miRNA.
func (c *Coords) Precursors() int { return len(c.mappings) }

// Parse reads a miRBase GFF3 stream.  Precursor rows
// (miRNA_primary_transcript) are matched to mature rows (miRNA) through the
// mature rows' Derives_from attribute.  Other row types are ignored.
func Parse(r io.Reader) (*Coords, error) {
	scanner := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	var (
		line       gffRecord
		fields     = map[string]string{}
		precursors = map[string]precursor{}
		matures    []gffRecord
	)
	for {
		if err := scanner.Read(&line); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "mirbase")
		}
		switch line.Molecule {
		case precursorType:
			parseAttrs(fields, line.Fields)
			p := precursor{
				name:  fields["Name"],
				chrom: line.Chrom,
				start: line.Start,
				stop:  line.Stop,
			}
			if line.Strand != "" {
				p.strand = line.Strand[0]
			}
			if fields["ID"] == "" || p.name == "" {
				return nil, errors.Errorf("mirbase: precursor at %s:%d has no ID or Name", line.Chrom, line.Start)
			}
			precursors[fields["ID"]] = p
		case matureType:
			matures = append(matures, line)
		}
	}
	c := &Coords{mappings: make(map[string]map[string]Mapping)}
	for _, line := range matures {
		parseAttrs(fields, line.Fields)
		p, ok := precursors[fields["Derives_from"]]
		if !ok {
			return nil, errors.Errorf("mirbase: miRNA %q derives from unknown precursor %q",
				fields["Name"], fields["Derives_from"])
		}
		m := Mapping{
			Chrom:  p.chrom,
			Offset: p.start - 1,
			Strand: p.strand,
		}
		if p.strand == '-' {
			m.MatureStart = p.stop - line.Stop
			m.MatureEnd = p.stop - line.Start + 1
		} else {
			m.MatureStart = line.Start - p.start
			m.MatureEnd = line.Stop - p.start + 1
		}
		if m.MatureStart < 0 || m.MatureEnd > p.stop-p.start+1 {
			return nil, errors.Errorf("mirbase: miRNA %q [%d,%d] is outside precursor %q [%d,%d]",
				fields["Name"], line.Start, line.Stop, p.name, p.start, p.stop)
		}
		byName := c.mappings[p.name]
		if byName == nil {
			byName = make(map[string]Mapping)
			c.mappings[p.name] = byName
		}
		byName[fields["Name"]] = m
	}
	return c, nil
}

// Load reads a miRBase GFF3 file, which may be compressed.
func Load(ctx context.Context, path string) (c *Coords, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	if c, err = Parse(r); err != nil {
		err = errors.Wrap(err, path)
	}
	return
}

// parseAttrs parses a GFF3 column 9 ("ID=x;Name=y") into attrs.
func parseAttrs(attrs map[string]string, s string) {
	for k := range attrs {
		delete(attrs, k)
	}
	for _, field := range strings.Split(strings.TrimSpace(s), ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pair := strings.SplitN(field, "=", 2)
		if len(pair) != 2 {
			continue
		}
		attrs[pair[0]] = pair[1]
	}
}
