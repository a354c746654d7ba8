package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// NewBEDOpts defines behavior of this package's BED-loading function(s).
type NewBEDOpts struct {
	// Invert causes the complement of the interval-union to be returned.  The
	// complement extends down to position -1 at the beginning of each
	// chromosome, and 2^31 - 2 inclusive at the end.  Only the chromosomes
	// mentioned in the BED file are included.  (A single empty interval
	// qualifies as a "mention".)
	Invert bool
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// PosType is BEDUnion's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// fwdsearchPosType checks a[idx], then a[idx + 1], then a[idx + 3], then
// a[idx + 7], etc., and then uses binary search to finish the job.  It's
// usually a better choice than searchPosType when iterating.
func fwdsearchPosType(a []PosType, x PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// BEDUnion is a set of disjoint intervals per chromosome.  Each chromosome's
// set is a length-2N sequence where the (0-based) start of interval #k is in
// element [2k] and its end in element [2k+1], in increasing order, so a
// position is covered iff its insertion index is odd.
//
// A BEDUnion caches search state, so it must not be queried concurrently; use
// Clone to give each goroutine its own.
type BEDUnion struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	nameMap map[string][]PosType
	// lastChrIntervals and lastChrName describe the most recently queried
	// chromosome.
	lastChrIntervals []PosType
	lastChrName      string
	// lastPosPlus1 is 1 plus the last queried position.
	lastPosPlus1 PosType
	// lastIdx is searchPosType(lastChrIntervals, lastPosPlus1).
	lastIdx int
	// isSequential is true if all queries since the last chromosome change have
	// been in order of nondecreasing position.
	isSequential bool
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the BEDUnion.
func (u *BEDUnion) ContainsByName(chrName string, pos PosType) bool {
	posPlus1 := pos + 1
	if chrName != u.lastChrName || u.lastChrIntervals == nil {
		u.lastChrName = chrName
		u.lastChrIntervals = u.nameMap[chrName]
		if u.lastChrIntervals == nil {
			return false
		}
		u.lastIdx = searchPosType(u.lastChrIntervals, posPlus1)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx&1 == 1
	}
	if u.isSequential {
		if posPlus1 >= u.lastPosPlus1 {
			u.lastIdx = fwdsearchPosType(u.lastChrIntervals, posPlus1, u.lastIdx)
			u.lastPosPlus1 = posPlus1
			return u.lastIdx&1 == 1
		}
		u.isSequential = false
	}
	return searchPosType(u.lastChrIntervals, posPlus1)&1 == 1
}

// ContainsVCFPos is ContainsByName for a 1-based position.
func (u *BEDUnion) ContainsVCFPos(chrName string, pos1 int) bool {
	if pos1 <= 0 || pos1 > posTypeMax {
		return false
	}
	return u.ContainsByName(chrName, PosType(pos1-1))
}

// Chromosomes returns the number of chromosomes mentioned.
func (u *BEDUnion) Chromosomes() int { return len(u.nameMap) }

// Clone returns a new BEDUnion which shares the interval set, but has its own
// search state.
func (u *BEDUnion) Clone() BEDUnion {
	return BEDUnion{nameMap: u.nameMap}
}

// unionBuilder accumulates sorted intervals, merging touching and overlapping
// ones and dropping empty ones.
type unionBuilder struct {
	invert    bool
	nameMap   map[string][]PosType
	chr       string
	intervals []PosType
	// start, end is the pending interval; end == -1 if there is none.
	start, end PosType
	bases      int
}

func newUnionBuilder(invert bool) *unionBuilder {
	return &unionBuilder{invert: invert, nameMap: make(map[string][]PosType), end: -1}
}

func (b *unionBuilder) add(chr string, start, end PosType) error {
	if start < 0 {
		return fmt.Errorf("negative start coordinate %d", start)
	}
	if end < start || end >= posTypeMax {
		return fmt.Errorf("invalid coordinate pair [%d, %d)", start, end)
	}
	if chr != b.chr || b.intervals == nil {
		b.flush()
		if _, found := b.nameMap[chr]; found {
			return fmt.Errorf("unsorted input (split chromosome %v)", chr)
		}
		b.chr = chr
		b.intervals = []PosType{}
		if b.invert {
			b.intervals = append(b.intervals, -1)
		}
		b.end = -1
	}
	switch {
	case end == start:
	case b.end == -1:
		b.start, b.end = start, end
		b.bases += int(end - start)
	case start > b.end:
		b.intervals = append(b.intervals, b.start, b.end)
		b.start, b.end = start, end
		b.bases += int(end - start)
	case start < b.start:
		return fmt.Errorf("unsorted input")
	case end > b.end:
		b.bases += int(end - b.end)
		b.end = end
	}
	return nil
}

func (b *unionBuilder) flush() {
	if b.intervals == nil {
		return
	}
	if b.end != -1 {
		b.intervals = append(b.intervals, b.start, b.end)
	}
	if b.invert {
		b.intervals = append(b.intervals, posTypeMax)
	}
	b.nameMap[b.chr] = b.intervals
	b.intervals = nil
}

func (b *unionBuilder) finish() BEDUnion {
	b.flush()
	return BEDUnion{nameMap: b.nameMap}
}

// NewBEDUnion loads just the intervals from a sorted (by first coordinate)
// interval-BED, merging touching/overlapping intervals and eliminating empty
// ones in the process.
func NewBEDUnion(reader io.Reader, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	scanner := bufio.NewScanner(reader)
	b := newUnionBuilder(opts.Invert)
	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}
	var tokens [3][]byte
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || curLine[0] == '#' {
			continue
		}
		if nToken != 3 {
			err = fmt.Errorf("interval.NewBEDUnion: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var start, end int
		if start, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return
		}
		if end, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			return
		}
		if end >= posTypeMax {
			err = fmt.Errorf("interval.NewBEDUnion: invalid coordinate pair on line %d", lineIdx)
			return
		}
		// The chromosome name must be copied, since it may become a map key.
		if err = b.add(string(tokens[0]), PosType(start-startSubtract), PosType(end)); err != nil {
			err = fmt.Errorf("interval.NewBEDUnion: line %d: %v", lineIdx, err)
			return
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	bedUnion = b.finish()
	log.Debug.Printf("BED loaded, %d base(s) covered.", b.bases)
	return
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped files are recognized by extension.
func NewBEDUnionFromPath(ctx context.Context, path string, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return NewBEDUnion(reader, opts)
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, posTypeMax - 1] is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.End = posTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if end < start1 || end >= posTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}

// NewBEDUnionFromEntries initializes a BEDUnion from a sorted []Entry.
// This ignores opts.OneBasedInput, since Start0 is defined to be zero-based.
func NewBEDUnionFromEntries(entries []Entry, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	b := newUnionBuilder(opts.Invert)
	for _, entry := range entries {
		if err = b.add(entry.ChrName, entry.Start0, entry.End); err != nil {
			err = fmt.Errorf("interval.NewBEDUnionFromEntries: %v", err)
			return
		}
	}
	return b.finish(), nil
}
