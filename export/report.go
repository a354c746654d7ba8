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
package export

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Stats counts what happened to the records of one input.
type Stats struct {
	// Reads is the number of data lines, including malformed ones.
	Reads int
	// Skipped counts records whose precursor or miRNA is not in the
	// reference tables.
	Skipped int
	// Failed counts records that could not be decoded.
	Failed int
	// NoVariant counts decoded records without variants.
	NoVariant int
	// Filtered counts variants dropped by the region filter.
	Filtered int
	// SNP and NonSNP count the distinct records written.
	SNP    int
	NonSNP int
}

// RecordError describes why one input record was dropped.
type RecordError struct {
	Line int
	// Name is the record's miRNA, if known.
	Name string
	Err  error
}

func (e RecordError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Name, e.Err)
}

// Report is the outcome of converting one input.
type Report struct {
	Input  string
	Output string
	Stats
	Errors []RecordError
}

func (r *Report) fail(line int, name string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{Line: line, Name: name, Err: err})
}

// CauseCounts returns the number of record errors per root cause.
func (r *Report) CauseCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.Errors {
		counts[errors.Cause(e.Err).Error()]++
	}
	return counts
}

// Log writes a summary of r to the log.  Individual record errors are only
// logged at debug level.
func (r *Report) Log() {
	log.Printf("%s: %d reads, %d skipped, %d failed, %d without variants, %d SNPs, %d other variants",
		r.Input, r.Reads, r.Skipped, r.Failed, r.NoVariant, r.SNP, r.NonSNP)
	if r.Filtered > 0 {
		log.Printf("%s: %d variants outside the target regions", r.Input, r.Filtered)
	}
	if len(r.Errors) == 0 {
		return
	}
	counts := r.CauseCounts()
	causes := make([]string, 0, len(counts))
	for cause := range counts {
		causes = append(causes, cause)
	}
	sort.Strings(causes)
	for _, cause := range causes {
		log.Error.Printf("%s: %d records: %s", r.Input, counts[cause], cause)
	}
	for _, e := range r.Errors {
		log.Debug.Printf("%s: %v", r.Input, e)
	}
}
