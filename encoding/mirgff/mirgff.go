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

// Package mirgff reads mirGFF3 files: GFF3 where each line describes one
// unique read sequence aligned to a miRNA precursor, with per-sample counts.
package mirgff

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformed is the cause of errors for lines that can't be parsed.
var ErrMalformed = errors.New("malformed mirGFF3 line")

const (
	sourcePrefix  = "## source-ontology:"
	coldataPrefix = "## COLDATA:"
	trimPrefix    = "iso_5p:"
	numFields     = 9
)

// Header holds the metadata from the leading "##" lines.
type Header struct {
	// Source is the source-ontology string.
	Source string
	// Samples lists the sample names from the COLDATA line, in the order of
	// Record.Expression.
	Samples []string
}

// Record is one data line.
type Record struct {
	// Line is the 1-based line number in the input.
	Line int
	// Seqid is column 1, the precursor.
	Seqid string
	Type  string
	// Start and End are 1-based, inclusive coordinates on the precursor.
	Start, End int
	Strand     byte
	// Attrs holds every attribute of column 9.
	Attrs map[string]string

	Name   string
	Parent string
	Cigar  string
	Read   string
	Filter string
	// Variants lists the comma-separated Variant tags.
	Variants []string
	// Expression holds the raw read count of each sample.
	Expression []int
	// Trim is the signed iso_5p shift; 0 if absent.
	Trim int
}

// Reader reads a mirGFF3 stream.
type Reader struct {
	r      *bufio.Reader
	header Header
	line   int
	// pending is the first data line, read while scanning the header.
	pending *string
}

// NewReader creates a Reader and reads the header.
func NewReader(in io.Reader) (*Reader, error) {
	r := &Reader{r: bufio.NewReaderSize(in, 64<<10)}
	for {
		line, err := r.next()
		if err == io.EOF {
			return r, nil
		}
		if err != nil {
			return nil, err
		}
		if r.line == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if !strings.HasPrefix(line, "#") {
			r.pending = &line
			return r, nil
		}
		switch {
		case strings.HasPrefix(line, sourcePrefix):
			r.header.Source = strings.TrimSpace(line[len(sourcePrefix):])
		case strings.HasPrefix(line, coldataPrefix):
			for _, s := range strings.Split(strings.TrimSpace(line[len(coldataPrefix):]), ",") {
				r.header.Samples = append(r.header.Samples, strings.TrimSpace(s))
			}
		}
	}
}

// Header returns the file header.
func (r *Reader) Header() Header { return r.header }

// Line returns the 1-based number of the line last read.
func (r *Reader) Line() int { return r.line }

// next returns the next line without its terminator.
func (r *Reader) next() (string, error) {
	line, err := r.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	r.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// Read returns the next record, or io.EOF at the end of the input.  Errors
// caused by a malformed line have cause ErrMalformed; reading may continue
// after them.
func (r *Reader) Read() (*Record, error) {
	for {
		var line string
		if r.pending != nil {
			line, r.pending = *r.pending, nil
		} else {
			var err error
			if line, err = r.next(); err != nil {
				return nil, err
			}
		}
		if line == "" || line[0] == '#' {
			continue
		}
		return parseLine(line, r.line)
	}
}

func parseLine(line string, lineno int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != numFields {
		return nil, errors.Wrapf(ErrMalformed, "got %d fields, want %d", len(fields), numFields)
	}
	rec := &Record{
		Line:  lineno,
		Seqid: fields[0],
		Type:  fields[2],
		Attrs: parseAttrs(fields[8]),
	}
	var err error
	if rec.Start, err = strconv.Atoi(fields[3]); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "start %q", fields[3])
	}
	if rec.End, err = strconv.Atoi(fields[4]); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "end %q", fields[4])
	}
	if len(fields[6]) == 1 {
		rec.Strand = fields[6][0]
	}
	for _, key := range []string{"Name", "Parent", "Cigar", "Read"} {
		if rec.Attrs[key] == "" {
			return nil, errors.Wrapf(ErrMalformed, "missing %s attribute", key)
		}
	}
	rec.Name = rec.Attrs["Name"]
	rec.Parent = rec.Attrs["Parent"]
	rec.Cigar = rec.Attrs["Cigar"]
	rec.Read = rec.Attrs["Read"]
	rec.Filter = rec.Attrs["Filter"]
	if v := rec.Attrs["Variant"]; v != "" {
		rec.Variants = strings.Split(v, ",")
	}
	for _, v := range rec.Variants {
		if !strings.HasPrefix(v, trimPrefix) {
			continue
		}
		if rec.Trim, err = strconv.Atoi(v[len(trimPrefix):]); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "variant %q", v)
		}
		break
	}
	if e := rec.Attrs["Expression"]; e != "" {
		for _, s := range strings.Split(e, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n < 0 {
				return nil, errors.Wrapf(ErrMalformed, "expression %q", e)
			}
			rec.Expression = append(rec.Expression, n)
		}
	}
	return rec, nil
}

// parseAttrs splits a column-9 string.  Attributes are separated by ';' and
// written either as "Key=Value" or "Key Value".
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		i := strings.IndexAny(kv, "= ")
		if i < 0 {
			attrs[kv] = ""
			continue
		}
		attrs[kv[:i]] = strings.TrimSpace(kv[i+1:])
	}
	return attrs
}
