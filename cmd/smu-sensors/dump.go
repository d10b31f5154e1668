package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/pmdump"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

type dumpOptions struct {
	min, max float32
	arrays   int
	ranged   bool
}

func newDumpCommand(cfg **config.Config) *cobra.Command {
	var opts dumpOptions
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the raw PM table as floats for offset discovery",
		Long: `Dump every 4-byte slot of the raw PM table as a float, labelled with
the decoded field it belongs to when the table version is supported.

--min/--max restrict the dump to slots whose value lies strictly
between them. --arrays N instead lists every run of N consecutive
in-range slots, which is how per-core arrays appear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ranged = cmd.Flags().Changed("min") || cmd.Flags().Changed("max")
			access, err := smu.Open((*cfg).SysfsPath)
			if err != nil {
				return err
			}
			return runDump(cmd.OutOrStdout(), access, coreHint(*cfg), opts)
		},
	}
	f := cmd.Flags()
	f.Float32Var(&opts.min, "min", -math.MaxFloat32, "lower bound (exclusive)")
	f.Float32Var(&opts.max, "max", math.MaxFloat32, "upper bound (exclusive)")
	f.IntVar(&opts.arrays, "arrays", 0, "find runs of N consecutive in-range slots")
	return cmd
}

func runDump(w io.Writer, access *smu.Access, hint func() int, opts dumpOptions) error {
	data, err := access.TableBytes()
	if err != nil {
		return err
	}
	version, err := access.TableVersion()
	if err != nil {
		return err
	}
	id, err := access.CodenameID()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Codename:         %s (ID: %d)\n", smu.CodenameFromID(id), id)
	fmt.Fprintf(w, "PM Table Version: %#08x\n", version)
	fmt.Fprintf(w, "PM Table Size:    %d bytes\n\n", len(data))

	// Labels are a convenience; an unknown version or core count
	// still dumps.
	var labels map[int]string
	if layout, ok := smu.Layouts.Lookup(version); ok {
		cores, _, _ := smu.ResolveCoreCount(hint(), id)
		labels = pmdump.Labels(layout, cores)
	}

	r := pmdump.Range{Min: opts.min, Max: opts.max}
	switch {
	case opts.arrays > 0:
		arrays := pmdump.FindArrays(data, opts.arrays, r)
		fmt.Fprintf(w, "=== %d-element runs in (%g, %g): %d found ===\n", opts.arrays, opts.min, opts.max, len(arrays))
		return pmdump.WriteArrays(w, arrays)
	case opts.ranged:
		slots := pmdump.Search(data, r, labels)
		fmt.Fprintf(w, "=== Values in (%g, %g): %d found ===\n\n", opts.min, opts.max, len(slots))
		return pmdump.WriteSlots(w, slots)
	}
	fmt.Fprintf(w, "=== PM Table Dump (%d bytes) ===\n\n", len(data))
	return pmdump.WriteSlots(w, pmdump.Dump(data, labels))
}
