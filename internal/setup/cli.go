package setup

import (
	"fmt"
	"io"
)

// PrintReport writes a human readable summary of a seeding run.
func PrintReport(w io.Writer, report *SeedReport) {
	fmt.Fprintln(w, "AgriHealth Catalog Seed")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w)

	for _, p := range []PartitionResult{report.Plant, report.Livestock} {
		fmt.Fprintf(w, "%s diseases:\n", p.Type)
		if p.Skipped() {
			fmt.Fprintf(w, "  Status: ✓ Already populated (%d entries)\n", p.Existing)
		} else {
			fmt.Fprintf(w, "  Status: ✓ Seeded %d entries\n", p.Created)
		}
		fmt.Fprintln(w)
	}
}
