package summary

import (
	"fmt"
	"strconv"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Stat is a named statistic of a summary.
type Stat struct {
	Name  string
	Value float64

	// Err is set if the statistic is undefined for the registered samples.
	Err error
}

// Bin is a histogram bin covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count uint64
}

// Report contains all the statistics of a summary.
type Report struct {
	ValueType string
	Count     uint64
	Stats     []Stat

	// Bins is empty if the summary has no histogram.
	Bins []Bin
}

// Get returns the value for the stat with the given name.
func (r *Report) Get(name string) (float64, error) {
	for _, st := range r.Stats {
		if st.Name == name {
			return st.Value, st.Err
		}
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// QuantileStatName returns the name of the stat for the phi quantile.
func QuantileStatName(phi float64) string {
	return "quantile_" + strconv.FormatFloat(phi, 'g', -1, 64)
}

// MomentStatName returns the name of the stat for the k-th standardized moment.
func MomentStatName(k int) string {
	return "moment_" + strconv.Itoa(k)
}

// Report returns the report with all the statistics of s.
//
// Undefined statistics are reported with non-nil Stat.Err.
func (s *Summary[F]) Report() *Report {
	r := &Report{
		ValueType: s.valueType,
		Count:     s.Count(),
	}
	add := func(name string, v F, err error) {
		r.Stats = append(r.Stats, Stat{
			Name:  name,
			Value: numeric.ToFloat64(v),
			Err:   err,
		})
	}

	v, err := s.extrema.Min()
	add("min", v, err)
	v, err = s.extrema.Max()
	add("max", v, err)
	v, err = s.extrema.Range()
	add("range", v, err)

	v, err = s.mv.Mean()
	add("mean", v, err)
	v, err = s.mv.Variance()
	add("variance", v, err)
	v, err = s.mv.PopulationVariance()
	add("population_variance", v, err)
	v, err = s.mv.StdDev()
	add("stddev", v, err)
	v, err = s.mv.Error()
	add("stderr", v, err)

	v, err = s.moments.Skewness()
	add("skewness", v, err)
	v, err = s.moments.Kurtosis()
	add("kurtosis", v, err)
	v, err = s.moments.SampleSkewness()
	add("sample_skewness", v, err)
	v, err = s.moments.SampleKurtosis()
	add("sample_kurtosis", v, err)

	for i, p := range s.quantile.Probabilities() {
		v, err = s.quantile.QuantileAt(i)
		add(QuantileStatName(numeric.ToFloat64(p)), v, err)
	}

	if s.momentsN != nil {
		for k := 3; k <= s.momentsN.Order(); k++ {
			v, err = s.momentsN.StandardizedMoment(k)
			add(MomentStatName(k), v, err)
		}
	}

	if s.hist != nil {
		v, err = s.hist.Mean()
		add("histogram_mean", v, err)
		v, err = s.hist.Variance()
		add("histogram_variance", v, err)

		edges := s.hist.Edges()
		for i := 0; i < s.hist.Bins(); i++ {
			r.Bins = append(r.Bins, Bin{
				Lower: numeric.ToFloat64(edges[i]),
				Upper: numeric.ToFloat64(edges[i+1]),
				Count: s.hist.Count(i),
			})
		}
	}
	return r
}
