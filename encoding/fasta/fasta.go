// Package fasta contains code for parsing FASTA files such as miRBase's
// hairpin.fa.  Briefly, FASTA files consist of a number of named sequences
// that may be interrupted by newlines.  For example:
//
// >hsa-let-7a-1 MI0000060 Homo sapiens let-7a-1 stem-loop
// UGGGAUGAGGUAGUAGGUUGUAUAGUUUUAGGGUCACACCCACCACUGGGAGAUAACUAUACAAUCUACUGUCUUUCCUA
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Seq returns the whole of the given sequence.
	Seq(seqName string) (string, bool)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

// Encoding selects how sequence letters are stored.
type Encoding int

const (
	// Raw keeps sequences exactly as they appear in the file.
	Raw Encoding = iota
	// DNA upper-cases sequences and rewrites RNA uracil (U) as thymine (T),
	// so RNA precursors compare directly with DNA reads.
	DNA
)

type opts struct {
	enc Encoding
}

// Opt is an option for New.
type Opt func(*opts)

// OptEncoding sets the sequence encoding.  The default is Raw.
func OptEncoding(enc Encoding) Opt {
	return func(o *opts) { o.enc = enc }
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

var dnaReplacer = strings.NewReplacer("U", "T", "u", "T")

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.
func New(r io.Reader, options ...Opt) (Fasta, error) {
	var o opts
	for _, opt := range options {
		opt(&o)
	}
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	var seqName string
	var seq strings.Builder
	add := func() error {
		if seqName == "" {
			if seq.Len() != 0 {
				return errors.Errorf("malformed FASTA file")
			}
			return nil
		}
		if _, ok := f.seqs[seqName]; ok {
			return errors.Errorf("duplicate sequence %s", seqName)
		}
		s := seq.String()
		if o.enc == DNA {
			s = strings.ToUpper(dnaReplacer.Replace(s))
		}
		f.seqs[seqName] = s
		f.seqNames = append(f.seqNames, seqName)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			if err := add(); err != nil {
				return nil, err
			}
			seqName = strings.Split(line[1:], " ")[0]
		} else {
			seq.WriteString(line)
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if err := add(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads the FASTA file at path, which may be compressed.
func Load(ctx context.Context, path string, options ...Opt) (fa Fasta, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if e := infile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	reader, _ := compress.NewReader(infile.Reader(ctx))
	defer func() {
		if e := reader.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if fa, err = New(reader, options...); err != nil {
		err = errors.Wrap(err, path)
	}
	return
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", fmt.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Seq implements Fasta.Seq().
func (f *fasta) Seq(seqName string) (string, bool) {
	s, ok := f.seqs[seqName]
	return s, ok
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (uint64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
