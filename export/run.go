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
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/sync/multierror"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/mirvcf/aggregate"
	"github.com/grailbio/mirvcf/encoding/vcf"
)

// Run converts each input to a file in opts.OutDir.  Inputs are independent
// and are processed in parallel.  A failed input does not stop the others;
// all failures are returned together.
func Run(ctx context.Context, inputs []string, opts Opts) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	refs, err := LoadReferences(ctx, opts)
	if err != nil {
		return err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(inputs) {
		parallelism = len(inputs)
	}
	errs := multierror.NewMultiError(len(inputs))
	log.Printf("converting %d inputs (%d jobs)", len(inputs), parallelism)
	_ = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(inputs)) / parallelism
		endIdx := ((jobIdx + 1) * len(inputs)) / parallelism
		for _, input := range inputs[startIdx:endIdx] {
			report, err := ConvertFile(ctx, refs, input, opts)
			if err != nil {
				log.Error.Printf("%s: %v", input, err)
				errs.Add(err)
				continue
			}
			report.Log()
			log.Printf("VCF generated %s", report.Output)
		}
		return nil
	})
	return errs.Err()
}

// ConvertFile converts the mirGFF3 file at input, which may be compressed,
// and writes the result to OutputPath(input, opts.OutDir, opts.Format).
func ConvertFile(ctx context.Context, refs *References, input string, opts Opts) (report *Report, err error) {
	log.Printf("reading %s", input)
	in, err := file.Open(ctx, input)
	if err != nil {
		return nil, errors.E(err, "couldn't open input:", input)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	doc, report, err := Convert(ctx, refs, r, opts)
	if err != nil {
		return nil, errors.E(err, "error reading input:", input)
	}
	report.Input = input
	report.Output = OutputPath(input, opts.OutDir, opts.Format)
	if err = WriteDocument(ctx, doc, report.Output, opts.Format, opts.Parallelism); err != nil {
		return nil, err
	}
	return report, nil
}

// WriteDocument writes doc to path in the given format.
func WriteDocument(ctx context.Context, doc *aggregate.Document, path, format string, parallelism int) (err error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create output:", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	switch format {
	case FormatVCF:
		err = vcf.Write(out.Writer(ctx), doc)
	case FormatVCFBgz:
		bgzfWriter := bgzf.NewWriter(out.Writer(ctx), parallelism)
		err = vcf.Write(bgzfWriter, doc)
		if e := bgzfWriter.Close(); e != nil && err == nil {
			err = e
		}
	case FormatRio:
		err = aggregate.WriteRio(out.Writer(ctx), doc)
	default:
		return fmt.Errorf("export: unrecognized format %q", format)
	}
	if err != nil {
		err = errors.E(err, "error writing output:", path)
	}
	return
}

// View renders the record dump at path as VCF text on w.
func View(ctx context.Context, path string, w io.Writer) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't open record dump:", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	doc, err := aggregate.ReadRio(in.Reader(ctx))
	if err != nil {
		return errors.E(err, "error reading record dump:", path)
	}
	return vcf.Write(w, doc)
}
