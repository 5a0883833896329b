package payroll

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/till/id"
)

// Direction is the punch type.
type Direction string

const (
	In  Direction = "IN"
	Out Direction = "OUT"
)

// Valid reports whether d is IN or OUT.
func (d Direction) Valid() bool { return d == In || d == Out }

// Punch is one time clock event.
type Punch struct {
	ID        id.PunchID `json:"id"`
	Worker    string     `json:"worker"`
	Direction Direction  `json:"direction"`
	At        time.Time  `json:"at"`
}

// Shift is a matched IN/OUT pair.
type Shift struct {
	In       time.Time     `json:"in"`
	Out      time.Time     `json:"out"`
	Duration time.Duration `json:"duration"`
}

// ShiftDuration returns out - in, or zero when out precedes in.
func ShiftDuration(in, out time.Time) time.Duration {
	d := out.Sub(in)
	if d < 0 {
		return 0
	}
	return d
}

// WorkerHours aggregates one worker's shifts within a period.
type WorkerHours struct {
	Worker string        `json:"worker"`
	Shifts []Shift       `json:"shifts"`
	Total  time.Duration `json:"total"`
	// Unmatched counts IN punches that never got an OUT.
	Unmatched int `json:"unmatched"`
}

// Hours returns Total in hours rounded to two places.
func (w WorkerHours) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(w.Total / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2)
}

// PairShifts pairs a single worker's punches greedily in chronological
// order. An IN followed by another IN is dropped, as is an OUT with no
// open IN.
func PairShifts(punches []Punch) (shifts []Shift, unmatched int) {
	sorted := append([]Punch(nil), punches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	var open *Punch
	for i := range sorted {
		p := sorted[i]
		switch p.Direction {
		case In:
			if open != nil {
				unmatched++
			}
			open = &sorted[i]
		case Out:
			if open == nil {
				continue
			}
			shifts = append(shifts, Shift{
				In:       open.At,
				Out:      p.At,
				Duration: ShiftDuration(open.At, p.At),
			})
			open = nil
		}
	}
	if open != nil {
		unmatched++
	}
	return shifts, unmatched
}

// Summarize computes per-worker hours for punches inside p, ordered by
// worker name.
func Summarize(p Period, punches []Punch) []WorkerHours {
	byWorker := make(map[string][]Punch)
	for _, pu := range punches {
		if p.Contains(pu.At) {
			byWorker[pu.Worker] = append(byWorker[pu.Worker], pu)
		}
	}

	out := make([]WorkerHours, 0, len(byWorker))
	for worker, ps := range byWorker {
		shifts, unmatched := PairShifts(ps)
		wh := WorkerHours{Worker: worker, Shifts: shifts, Unmatched: unmatched}
		for _, s := range shifts {
			wh.Total += s.Duration
		}
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Worker < out[j].Worker })
	return out
}

// PeriodSummary is the hours table for one period.
type PeriodSummary struct {
	Period  Period        `json:"period"`
	Workers []WorkerHours `json:"workers"`
}

// Worker returns the hours entry for name.
func (s PeriodSummary) Worker(name string) (WorkerHours, bool) {
	for _, w := range s.Workers {
		if w.Worker == name {
			return w, true
		}
	}
	return WorkerHours{}, false
}

// Report covers the current and previous pay periods.
type Report struct {
	Current  PeriodSummary `json:"current"`
	Previous PeriodSummary `json:"previous"`
}

// BuildReport derives both live periods from now and summarizes punches.
func BuildReport(now time.Time, punches []Punch) Report {
	current, previous := Periods(now)
	return Report{
		Current:  PeriodSummary{Period: current, Workers: Summarize(current, punches)},
		Previous: PeriodSummary{Period: previous, Workers: Summarize(previous, punches)},
	}
}

// Store records punches and lists those in [from, to).
type Store interface {
	RecordPunch(ctx context.Context, p Punch) error
	ListPunches(ctx context.Context, from, to time.Time) ([]Punch, error)
}
