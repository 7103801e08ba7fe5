/*
period.go - Reporting period resolution (month / IRS quarter / year)

PURPOSE:
  Resolves the inclusive date range the user is looking at and steps to the
  adjacent one. The quarterly mode uses IRS estimated-tax periods, NOT
  calendar quarters:

    Q1  Jan-Mar  (3 months)
    Q2  Apr-May  (2 months)
    Q3  Jun-Aug  (3 months)
    Q4  Sep-Dec  (4 months)

  The asymmetry mirrors U.S. estimated-tax due dates and is load-bearing;
  gig workers plan payments around these exact boundaries.

INVARIANT:
  For every mode, adjacent periods tile the calendar: no overlap, no gap.
  resolve(step(next)) starts the day after the current range ends.

SEE ALSO:
  - aggregate.go: Filters records to a resolved range
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD MODE AND RANGE
// =============================================================================

type PeriodMode string

const (
	PeriodMonthly   PeriodMode = "monthly"
	PeriodQuarterly PeriodMode = "quarterly"
	PeriodAnnual    PeriodMode = "annual"
)

type StepDirection int

const (
	StepPrev StepDirection = -1
	StepNext StepDirection = 1
)

// PeriodRange is an inclusive date range with a display label.
type PeriodRange struct {
	Start Date
	End   Date
	Label string
}

// Contains reports whether the date falls within [Start, End].
func (p PeriodRange) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// =============================================================================
// IRS ESTIMATED-TAX QUARTERS
// =============================================================================

// irsQuarter describes one fixed quarter as (first month, last month).
type irsQuarter struct {
	First time.Month
	Last  time.Month
}

var irsQuarters = [4]irsQuarter{
	{time.January, time.March},
	{time.April, time.May},
	{time.June, time.August},
	{time.September, time.December},
}

// quarterOf returns the 1-based IRS quarter containing the month.
func quarterOf(m time.Month) int {
	switch {
	case m <= time.March:
		return 1
	case m <= time.May:
		return 2
	case m <= time.August:
		return 3
	default:
		return 4
	}
}

// =============================================================================
// RESOLVE / STEP
// =============================================================================

// Resolve computes the period containing the anchor date.
func Resolve(mode PeriodMode, anchor Date) PeriodRange {
	switch mode {
	case PeriodMonthly:
		return PeriodRange{
			Start: StartOfMonth(anchor.Year(), anchor.Month()),
			End:   EndOfMonth(anchor.Year(), anchor.Month()),
			Label: fmt.Sprintf("%s %d", anchor.Month().String(), anchor.Year()),
		}

	case PeriodQuarterly:
		q := quarterOf(anchor.Month())
		span := irsQuarters[q-1]
		return PeriodRange{
			Start: StartOfMonth(anchor.Year(), span.First),
			End:   EndOfMonth(anchor.Year(), span.Last),
			Label: fmt.Sprintf("Q%d %d", q, anchor.Year()),
		}

	case PeriodAnnual:
		fallthrough
	default:
		return PeriodRange{
			Start: NewDate(anchor.Year(), time.January, 1),
			End:   NewDate(anchor.Year(), time.December, 31),
			Label: fmt.Sprintf("%d", anchor.Year()),
		}
	}
}

// Step returns the anchor for the adjacent period. Quarterly steps wrap
// across year boundaries (Q4 -> Q1 advances the year, Q1 -> Q4 regresses it)
// and reposition the anchor to the first month of the target quarter.
func Step(mode PeriodMode, anchor Date, dir StepDirection) Date {
	switch mode {
	case PeriodMonthly:
		// Anchor to day 1 first so stepping from Jan 31 cannot skip February.
		return StartOfMonth(anchor.Year(), anchor.Month()).AddMonths(int(dir))

	case PeriodQuarterly:
		q := quarterOf(anchor.Month()) - 1 // 0-based
		year := anchor.Year()
		q += int(dir)
		if q < 0 {
			q = 3
			year--
		} else if q > 3 {
			q = 0
			year++
		}
		return StartOfMonth(year, irsQuarters[q].First)

	case PeriodAnnual:
		fallthrough
	default:
		return NewDate(anchor.Year()+int(dir), time.January, 1)
	}
}
