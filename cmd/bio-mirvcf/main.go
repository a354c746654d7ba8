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
package main

/*
bio-mirvcf converts isomiR annotations in mirGFF3 format to VCF.  Each input
file yields one output file, named after the input, in the output directory.
*/

import (
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mirvcf/export"
	"v.io/x/lib/cmdline"
)

func newCmdVCF() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "vcf",
		Short:    "Convert mirGFF3 files to VCF",
		ArgsName: "mirgffpath...",
	}
	opts := export.DefaultOpts
	cmd.Flags.StringVar(&opts.HairpinPath, "hairpin", opts.HairpinPath, "Precursor (hairpin) FASTA path, e.g. miRBase hairpin.fa; required")
	cmd.Flags.StringVar(&opts.GTFPath, "gtf", opts.GTFPath, "miRBase GFF3 genome coordinates path, e.g. hsa.gff3; required")
	cmd.Flags.StringVar(&opts.BedPath, "bed", opts.BedPath, "Only report variants inside the intervals in this BED file")
	cmd.Flags.StringVar(&opts.Region, "region", opts.Region, "Only report variants inside this region. Format as <contig>:<1-based first pos>-<last pos>, <contig>:<1-based pos>, or just <contig>; can't be combined with -bed")
	cmd.Flags.BoolVar(&opts.BedOneBased, "bed-one-based", opts.BedOneBased, "Interpret -bed intervals as one-based [start, end] instead of zero-based [start, end)")
	cmd.Flags.BoolVar(&opts.ExcludeRegions, "exclude-regions", opts.ExcludeRegions, "Report variants outside the -bed or -region intervals instead of inside")
	cmd.Flags.StringVar(&opts.OutDir, "out", opts.OutDir, "Output directory")
	cmd.Flags.StringVar(&opts.Format, "format", opts.Format, "Output format; 'vcf', 'vcf-bgz', and 'rio' supported")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Maximum number of inputs converted at once; 0 = runtime.NumCPU()")
	cmd.Flags.BoolVar(&opts.Aggregate.AggregateStructural, "aggregate-structural", opts.Aggregate.AggregateStructural,
		"Give insertion and deletion records per-sample counts, summed over all reads carrying them")
	cmd.Flags.BoolVar(&opts.Aggregate.TotalsFromAllReads, "totals-from-all-reads", opts.Aggregate.TotalsFromAllReads,
		"Compute per-miRNA totals (TMC) from every read once, instead of once per SNP carried by the read")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("vcf takes at least one mirGFF3 path")
		}
		return export.Run(vcontext.Background(), argv, opts)
	})
	return cmd
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "view",
		Short:    "Print a record dump written with -format=rio as VCF",
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("view takes one pathname argument, but got %v", argv)
		}
		return export.View(vcontext.Background(), argv[0], os.Stdout)
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-mirvcf",
			Short:    "Tools for converting isomiR annotations to VCF",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdVCF(),
				newCmdView(),
			},
		})
}
