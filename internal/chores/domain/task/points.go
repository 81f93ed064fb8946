package task

import "math/big"

// PointsSummary is the per-person tally of completed work.
// Difference is PersonA minus PersonB; positive means A leads.
type PointsSummary struct {
	PersonA    float64 `json:"personA"`
	PersonB    float64 `json:"personB"`
	Difference float64 `json:"difference"`
}

// Leader returns who is ahead, or Both on a tie.
func (s PointsSummary) Leader() Person {
	switch {
	case s.Difference > 0:
		return PersonA
	case s.Difference < 0:
		return PersonB
	default:
		return PersonBoth
	}
}

// Summarize credits each completed task to its attributed person.
// Tasks attributed to Both split their points evenly. Sums are kept as
// exact rationals and only converted at the end.
func Summarize(tasks []Task) PointsSummary {
	a := new(big.Rat)
	b := new(big.Rat)
	half := big.NewRat(1, 2)

	for _, t := range tasks {
		if !t.Completed || t.Points <= 0 {
			continue
		}
		pts := new(big.Rat)
		if pts.SetFloat64(t.Points) == nil {
			continue
		}
		switch t.Attribution() {
		case PersonA:
			a.Add(a, pts)
		case PersonB:
			b.Add(b, pts)
		case PersonBoth:
			share := new(big.Rat).Mul(pts, half)
			a.Add(a, share)
			b.Add(b, share)
		}
	}

	diff := new(big.Rat).Sub(a, b)
	pa, _ := a.Float64()
	pb, _ := b.Float64()
	pd, _ := diff.Float64()
	return PointsSummary{PersonA: pa, PersonB: pb, Difference: pd}
}
