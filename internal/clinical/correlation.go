package clinical

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is a Pearson correlation between scores and a biomarker.
type Correlation struct {
	R       float64 `json:"r"`
	PValue  float64 `json:"pValue"`
	Samples int     `json:"samples"`
}

// MarshalJSON renders NaN statistics as null, since JSON has no NaN.
func (c Correlation) MarshalJSON() ([]byte, error) {
	type jsonCorrelation struct {
		R       *float64 `json:"r"`
		PValue  *float64 `json:"pValue"`
		Samples int      `json:"samples"`
	}
	out := jsonCorrelation{Samples: c.Samples}
	if !math.IsNaN(c.R) {
		out.R = &c.R
	}
	if !math.IsNaN(c.PValue) {
		out.PValue = &c.PValue
	}
	return json.Marshal(out)
}

// Pearson computes the Pearson correlation coefficient between paired
// samples and its two-sided p-value under the t distribution with n-2
// degrees of freedom. Fewer than two pairs yields NaN statistics, which
// callers report as "insufficient data".
func Pearson(xs, ys []float64) Correlation {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return Correlation{R: math.NaN(), PValue: math.NaN(), Samples: n}
	}

	r := stat.Correlation(xs[:n], ys[:n], nil)
	if math.IsNaN(r) {
		return Correlation{R: math.NaN(), PValue: math.NaN(), Samples: n}
	}

	if n == 2 || math.Abs(r) >= 1 {
		// Degenerate: |r|=1 has p=0, two samples carry no significance.
		p := 1.0
		if math.Abs(r) >= 1 {
			p = 0.0
		}
		return Correlation{R: r, PValue: p, Samples: n}
	}

	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * dist.CDF(-math.Abs(t))
	return Correlation{R: r, PValue: p, Samples: n}
}

// Pair aligns observations with per-patient scores by patient ID and
// returns the matched (score, biomarker) sample vectors.
func Pair(obs []Observation, scores map[string]float64) (xs, ys []float64) {
	for _, o := range obs {
		score, ok := scores[o.PatientID]
		if !ok {
			continue
		}
		xs = append(xs, score)
		ys = append(ys, o.Value)
	}
	return xs, ys
}
