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
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/pkg/errors"
)

const (
	samplesHeader = "Samples"
	sourceHeader  = "Source"
	dateHeader    = "Date"

	trailerVersion = 1
)

// ErrChecksum means a record dump's contents don't match its trailer.
var ErrChecksum = errors.New("record dump checksum mismatch")

func init() {
	recordiozstd.Init()
}

// rioEntry is one item of a record dump: either a Record, or the totals of
// one miRNA.
type rioEntry struct {
	Record *Record
	// HasSamples distinguishes an empty per-sample vector from a missing one,
	// which gob cannot.
	HasSamples bool

	Mirna  string
	Totals []int
}

// WriteRio writes doc to out as a zstd-compressed recordio file.  Records
// keep their order; totals follow them, sorted by miRNA name.  The trailer
// holds the entry count and a seahash checksum of the encoded entries.
func WriteRio(out io.Writer, doc *Document) error {
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(samplesHeader, strings.Join(doc.Samples, "\000"))
	w.AddHeader(sourceHeader, doc.Source)
	w.AddHeader(dateHeader, doc.Date.UTC().Format(time.RFC3339))
	w.AddHeader(recordio.KeyTrailer, true)

	h := seahash.New()
	var numEntries int64
	appendEntry := func(e *rioEntry) error {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(e); err != nil {
			return err
		}
		b := buf.Bytes()
		_, _ = h.Write(b)
		w.Append(b)
		numEntries++
		return nil
	}
	for _, r := range doc.Records {
		if err := appendEntry(&rioEntry{Record: r, HasSamples: r.HasSamples()}); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(doc.Totals))
	for name := range doc.Totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := appendEntry(&rioEntry{Mirna: name, Totals: doc.Totals[name]}); err != nil {
			return err
		}
	}
	w.SetTrailer(rioTrailer(numEntries, h.Sum64()))
	return w.Finish()
}

func rioTrailer(numEntries int64, sum uint64) []byte {
	var buffer bytes.Buffer
	for _, v := range []interface{}{int64(trailerVersion), numEntries, sum} {
		if err := binary.Write(&buffer, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buffer.Bytes()
}

func parseRioTrailer(trailer []byte) (numEntries int64, sum uint64, err error) {
	r := bytes.NewReader(trailer)
	var version int64
	if err = binary.Read(r, binary.LittleEndian, &version); err != nil {
		return
	}
	if version != trailerVersion {
		err = fmt.Errorf("unrecognized trailer version: got %d, want %d", version, trailerVersion)
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &numEntries); err != nil {
		return
	}
	err = binary.Read(r, binary.LittleEndian, &sum)
	return
}

// ReadRio reads a Document written by WriteRio.
func ReadRio(in io.ReadSeeker) (*Document, error) {
	scanner := recordio.NewScanner(in, recordio.ScannerOpts{})
	doc := &Document{Totals: make(Totals)}
	for _, kv := range scanner.Header() {
		switch kv.Key {
		case samplesHeader:
			if s := kv.Value.(string); s != "" {
				doc.Samples = strings.Split(s, "\000")
			}
		case sourceHeader:
			doc.Source = kv.Value.(string)
		case dateHeader:
			date, err := time.Parse(time.RFC3339, kv.Value.(string))
			if err != nil {
				return nil, errors.Wrap(err, "record dump date")
			}
			doc.Date = date
		}
	}
	wantEntries, wantSum, err := parseRioTrailer(scanner.Trailer())
	if err != nil {
		return nil, errors.Wrap(err, "record dump trailer")
	}
	h := seahash.New()
	var numEntries int64
	for scanner.Scan() {
		b := scanner.Get().([]byte)
		_, _ = h.Write(b)
		numEntries++
		var e rioEntry
		if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
			return nil, errors.Wrapf(err, "record dump entry %d", numEntries)
		}
		if e.Record == nil {
			doc.Totals[e.Mirna] = e.Totals
			continue
		}
		if e.HasSamples && e.Record.Counts == nil {
			e.Record.Presence = []int{}
			e.Record.Counts = []int{}
		}
		doc.Records = append(doc.Records, e.Record)
	}
	if err := scanner.Finish(); err != nil {
		return nil, err
	}
	if numEntries != wantEntries || h.Sum64() != wantSum {
		return nil, errors.Wrapf(ErrChecksum, "read %d entries (sum %x), trailer says %d (sum %x)",
			numEntries, h.Sum64(), wantEntries, wantSum)
	}
	return doc, nil
}
