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
	"path/filepath"
	"strings"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/mirvcf/aggregate"
)

// Output formats.
const (
	FormatVCF    = "vcf"
	FormatVCFBgz = "vcf-bgz"
	FormatRio    = "rio"
)

var formatExts = map[string]string{
	FormatVCF:    ".vcf",
	FormatVCFBgz: ".vcf.gz",
	FormatRio:    ".vardump.rio",
}

// Opts configures a conversion.
type Opts struct {
	// Commandline options.
	HairpinPath string
	GTFPath     string
	BedPath     string
	Region      string
	OutDir      string
	Format      string
	Parallelism int

	// BedOneBased reads BedPath as one-based, closed intervals.
	BedOneBased bool
	// ExcludeRegions reports variants outside BedPath or Region instead of
	// inside.
	ExcludeRegions bool

	Aggregate aggregate.Opts

	// Date is written to the VCF header.  The zero value means the time of the
	// run.
	Date time.Time
}

// DefaultOpts are the defaults for bio-mirvcf.
var DefaultOpts = Opts{
	OutDir:      ".",
	Format:      FormatVCF,
	Parallelism: 0,
}

// Validate checks opts for consistency.
func (o *Opts) Validate() error {
	if _, ok := formatExts[o.Format]; !ok {
		return fmt.Errorf("export: unrecognized format %q", o.Format)
	}
	if o.HairpinPath == "" || o.GTFPath == "" {
		return fmt.Errorf("export: -hairpin and -gtf are required")
	}
	if o.BedPath != "" && o.Region != "" {
		return fmt.Errorf("export: -region and -bed flags can't be used together")
	}
	if o.BedOneBased && o.BedPath == "" {
		return fmt.Errorf("export: -bed-one-based requires -bed")
	}
	if o.ExcludeRegions && o.BedPath == "" && o.Region == "" {
		return fmt.Errorf("export: -exclude-regions requires -bed or -region")
	}
	return nil
}

// compressionExts are stripped from input names before the format extension.
var compressionExts = []string{".gz", ".zst", ".bz2"}

// OutputPath returns where the result for input is written: in outDir, named
// after the input's base name with its extension replaced by the format's.
func OutputPath(input, outDir, format string) string {
	base := filepath.Base(input)
	for _, ext := range compressionExts {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if outDir == "" {
		outDir = "."
	}
	return file.Join(outDir, base+formatExts[format])
}
