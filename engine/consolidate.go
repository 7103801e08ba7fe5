/*
consolidate.go - Multi-day gig consolidation (greedy chain grouping)

PURPOSE:
  Raw storage holds one GigRecord per calendar day. A three-day conference
  booking is three rows. Every reading surface (calendar, gig log,
  dashboard) wants the logical booking instead, so this file derives it:
  records sharing an event/client/type key across consecutive-ish days merge
  into one ConsolidatedGig.

ALGORITHM (GreedyChainGrouper):
  Records are sorted by date, then walked in order. Each unprocessed record
  seeds a chain; the scan continues forward, appending any record that
  matches the seed's grouping key and falls within CHAIN_WINDOW days of the
  chain's current tail. A forward record more than CHAIN_WINDOW days past
  the tail ends the scan early - the input is date-sorted, so nothing
  further can qualify either. Non-matching records inside the window are
  skipped, not consumed; they will seed their own chains.

  The grouping is greedy and first-match-wins: a record joins the earliest
  chain that reaches it and is never re-evaluated. When several distinct
  bookings with an identical key interleave inside overlapping windows they
  merge into one chain per earliest match.

INVARIANTS:
  - Pure function: no shared state; the processed set is call-local
  - Idempotent: same input produces identical chains and ordering
  - Financials of a chain are the FIRST record's, never summed
  - Records with malformed dates are logged and excluded

SEE ALSO:
  - types.go: ConsolidatedGig, grouping key
  - aggregate.go: Consumes the consolidated view
*/
package engine

import (
	"log"
	"sort"
)

// ChainWindow is the maximum day gap between the tail of a chain and the
// next record of the same booking. Bookings further apart are separate.
const ChainWindow = 7

// Consolidate groups day-by-day records into logical bookings.
// Output order follows the date-sorted input; output length <= input length.
func Consolidate(records []GigRecord) []ConsolidatedGig {
	// Sort a copy: the forward short-circuit below is only valid over
	// date-sorted input, and callers owe us no ordering.
	type dated struct {
		rec GigRecord
		day Date
	}
	sorted := make([]dated, 0, len(records))
	for _, r := range records {
		day, ok := r.Day()
		if !ok {
			log.Printf("engine: gig %d has malformed date %q, excluded from consolidation", r.ID, r.Date)
			continue
		}
		sorted = append(sorted, dated{rec: r, day: day})
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].day.Before(sorted[j].day) })

	processed := make(map[GigID]bool, len(sorted))
	out := make([]ConsolidatedGig, 0, len(sorted))

	for i := range sorted {
		cur := sorted[i]
		if processed[cur.rec.ID] {
			continue
		}
		processed[cur.rec.ID] = true

		chain := []GigRecord{cur.rec}
		tail := cur.day
		key := cur.rec.key()

		for j := i + 1; j < len(sorted); j++ {
			cand := sorted[j]
			if processed[cand.rec.ID] {
				continue
			}
			diff := DaysBetween(tail, cand.day)
			if diff > ChainWindow {
				// Sorted input: everything further is at least this far out.
				break
			}
			if diff > 0 && cand.rec.key() == key {
				chain = append(chain, cand.rec)
				processed[cand.rec.ID] = true
				tail = cand.day
			}
		}

		end := tail
		out = append(out, ConsolidatedGig{
			Records:    chain,
			StartDate:  cur.day,
			EndDate:    end,
			IsMultiDay: len(chain) > 1,
		})
	}
	return out
}
