// Package flagstat implements the flagstat analyzer: a representative
// columnar query that computes sixteen QC-pass/QC-fail counters from the
// RefID, NextRefID, Flags and MapQ columns (spec §4.8).
package flagstat

import (
	"fmt"
	"strings"

	"github.com/gbamio/gbam/bamflag"
	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/reader"
	"github.com/gbamio/gbam/record"
)

// Stats holds the sixteen flagstat counters. Each counter is a
// [2]int64 indexed [QC-pass, QC-fail].
type Stats struct {
	NReads     [2]int64
	NPrimary   [2]int64
	NSecondary [2]int64
	NSupp      [2]int64
	NDup       [2]int64
	NPDup      [2]int64
	NMapped    [2]int64
	NPMapped   [2]int64
	NPairAll   [2]int64
	NRead1     [2]int64
	NRead2     [2]int64
	NPairGood  [2]int64
	NPairMap   [2]int64
	NSgltn     [2]int64
	NDiffChr   [2]int64
	NDiffHigh  [2]int64
}

// Collect computes Stats by scanning every record of r with the template
// narrowed to {RefID, NextRefID, Flags, MapQ}, restoring r's original
// template on return.
func Collect(r *reader.Reader) (*Stats, error) {
	if err := r.FetchOnly(field.RefID, field.NextRefID, field.Flags, field.MapQ); err != nil {
		return nil, err
	}
	defer r.RestoreTemplate()

	var s Stats
	var rec record.Record
	for n := 0; n < r.RecordCount(); n++ {
		if err := r.FillRecord(n, &rec); err != nil {
			return nil, err
		}
		s.accumulate(&rec)
	}

	return &s, nil
}

func (s *Stats) accumulate(rec *record.Record) {
	flags := bamflag.Flag(*rec.Flags)

	w := 0
	if flags.Has(bamflag.QCFail) {
		w = 1
	}

	s.NReads[w]++

	switch {
	case flags.Has(bamflag.Secondary):
		s.NSecondary[w]++
	case flags.Has(bamflag.Supplementary):
		s.NSupp[w]++
	default:
		s.NPrimary[w]++

		if flags.Has(bamflag.Paired) {
			s.NPairAll[w]++

			if flags.Has(bamflag.ProperPair) && !flags.Has(bamflag.Unmapped) {
				s.NPairGood[w]++
			}
			if flags.Has(bamflag.Read1) {
				s.NRead1[w]++
			}
			if flags.Has(bamflag.Read2) {
				s.NRead2[w]++
			}
			if flags.Has(bamflag.MateUnmapped) && !flags.Has(bamflag.Unmapped) {
				s.NSgltn[w]++
			}
			if !flags.Has(bamflag.Unmapped) && !flags.Has(bamflag.MateUnmapped) {
				s.NPairMap[w]++

				if *rec.RefID != *rec.NextRefID {
					s.NDiffChr[w]++

					if *rec.MapQ >= 5 {
						s.NDiffHigh[w]++
					}
				}
			}
		}

		if !flags.Has(bamflag.Unmapped) {
			s.NPMapped[w]++
		}
		if flags.Has(bamflag.Duplicate) {
			s.NPDup[w]++
		}
	}

	if !flags.Has(bamflag.Unmapped) {
		s.NMapped[w]++
	}
	if flags.Has(bamflag.Duplicate) {
		s.NDup[w]++
	}
}

// percent formats n as a percentage of total, or "N/A" if total is zero.
func percent(n, total int64) string {
	if total == 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}

type line struct {
	label     string
	counts    [2]int64
	denom     *[2]int64 // nil: no percentage suffix
}

// String renders the standard sixteen-line flagstat text report (spec §6).
func (s *Stats) String() string {
	lines := []line{
		{"in total (QC-passed reads + QC-failed reads)", s.NReads, nil},
		{"primary", s.NPrimary, nil},
		{"secondary", s.NSecondary, nil},
		{"supplementary", s.NSupp, nil},
		{"duplicates", s.NDup, nil},
		{"primary duplicates", s.NPDup, nil},
		{"mapped", s.NMapped, &s.NReads},
		{"primary mapped", s.NPMapped, &s.NPrimary},
		{"paired in sequencing", s.NPairAll, nil},
		{"read1", s.NRead1, nil},
		{"read2", s.NRead2, nil},
		{"properly paired", s.NPairGood, &s.NPairAll},
		{"with itself and mate mapped", s.NPairMap, nil},
		{"singletons", s.NSgltn, &s.NPairAll},
		{"with mate mapped to a different chr", s.NDiffChr, nil},
		{"with mate mapped to a different chr (mapQ>=5)", s.NDiffHigh, nil},
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d + %d %s", l.counts[0], l.counts[1], l.label)
		if l.denom != nil {
			fmt.Fprintf(&b, " (%s : %s)", percent(l.counts[0], l.denom[0]), percent(l.counts[1], l.denom[1]))
		}
	}

	return b.String()
}
