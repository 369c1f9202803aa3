package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/valyala/fastjson"
	"github.com/valyala/fasttemplate"

	"github.com/VictoriaMetrics/streamstats/lib/summary"
)

// Supported report formats.
const (
	outputText     = "text"
	outputJSON     = "json"
	outputTemplate = "template"
)

// reportWriter writes summary reports in the configured format.
type reportWriter struct {
	format string
	tmpl   *fasttemplate.Template
}

func newReportWriter(format, tmpl string) (*reportWriter, error) {
	rw := &reportWriter{
		format: format,
	}
	switch format {
	case outputText, outputJSON:
		if tmpl != "" {
			return nil, fmt.Errorf("-%s can be set only with -%s=%s", globalTemplate, globalOutput, outputTemplate)
		}
	case outputTemplate:
		if tmpl == "" {
			return nil, fmt.Errorf("missing -%s for -%s=%s", globalTemplate, globalOutput, outputTemplate)
		}
		t, err := fasttemplate.NewTemplate(tmpl, "{{", "}}")
		if err != nil {
			return nil, fmt.Errorf("cannot parse -%s: %w", globalTemplate, err)
		}
		rw.tmpl = t
	default:
		return nil, fmt.Errorf("unsupported -%s=%q; supported values: %s, %s, %s", globalOutput, format, outputText, outputJSON, outputTemplate)
	}
	return rw, nil
}

func (rw *reportWriter) write(w io.Writer, r *summary.Report) error {
	var b []byte
	switch rw.format {
	case outputText:
		b = marshalReportText(nil, r)
	case outputJSON:
		b = marshalReportJSON(nil, r)
	case outputTemplate:
		var err error
		b, err = executeTemplate(nil, rw.tmpl, r)
		if err != nil {
			return err
		}
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}
	return nil
}

func marshalReportText(dst []byte, r *summary.Report) []byte {
	dst = fmt.Appendf(dst, "valueType: %s\n", r.ValueType)
	dst = fmt.Appendf(dst, "count: %d\n", r.Count)
	for _, st := range r.Stats {
		dst = append(dst, st.Name...)
		dst = append(dst, ": "...)
		dst = appendStatValue(dst, st)
		dst = append(dst, '\n')
	}
	if len(r.Bins) > 0 {
		dst = append(dst, "histogram:\n"...)
		dst = appendBinsText(dst, r.Bins, "  ")
	}
	return dst
}

func appendBinsText(dst []byte, bins []summary.Bin, prefix string) []byte {
	for _, b := range bins {
		dst = fmt.Appendf(dst, "%s[%s, %s): %d\n", prefix, formatFloat(b.Lower), formatFloat(b.Upper), b.Count)
	}
	return dst
}

func appendStatValue(dst []byte, st summary.Stat) []byte {
	if st.Err != nil {
		return append(dst, "undefined"...)
	}
	return strconv.AppendFloat(dst, st.Value, 'g', -1, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func marshalReportJSON(dst []byte, r *summary.Report) []byte {
	a := arenaPool.Get()
	defer arenaPool.Put(a)

	o := a.NewObject()
	o.Set("valueType", a.NewString(r.ValueType))
	o.Set("count", a.NewNumberString(strconv.FormatUint(r.Count, 10)))

	stats := a.NewObject()
	for _, st := range r.Stats {
		stats.Set(st.Name, newJSONNumber(a, st))
	}
	o.Set("stats", stats)

	if len(r.Bins) > 0 {
		bins := a.NewArray()
		for i, b := range r.Bins {
			bin := a.NewObject()
			bin.Set("lower", newJSONFloat(a, b.Lower))
			bin.Set("upper", newJSONFloat(a, b.Upper))
			bin.Set("count", a.NewNumberString(strconv.FormatUint(b.Count, 10)))
			bins.SetArrayItem(i, bin)
		}
		o.Set("histogram", bins)
	}
	dst = o.MarshalTo(dst)
	return append(dst, '\n')
}

var arenaPool fastjson.ArenaPool

// newJSONNumber returns null for undefined stats.
func newJSONNumber(a *fastjson.Arena, st summary.Stat) *fastjson.Value {
	if st.Err != nil {
		return a.NewNull()
	}
	return newJSONFloat(a, st.Value)
}

// newJSONFloat returns a string for values without JSON number representation such as Inf.
func newJSONFloat(a *fastjson.Arena, f float64) *fastjson.Value {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return a.NewString(formatFloat(f))
	}
	return a.NewNumberFloat64(f)
}

func executeTemplate(dst []byte, t *fasttemplate.Template, r *summary.Report) ([]byte, error) {
	var buf byteWriter
	buf.b = dst
	_, err := t.ExecuteFunc(&buf, func(w io.Writer, tag string) (int, error) {
		switch tag {
		case "count":
			return w.Write(strconv.AppendUint(nil, r.Count, 10))
		case "valueType":
			return w.Write([]byte(r.ValueType))
		case "histogram":
			return w.Write(appendBinsText(nil, r.Bins, ""))
		}
		for _, st := range r.Stats {
			if st.Name == tag {
				return w.Write(appendStatValue(nil, st))
			}
		}
		return 0, fmt.Errorf("unknown template tag {{%s}}", tag)
	})
	if err != nil {
		return dst, fmt.Errorf("cannot execute -%s: %w", globalTemplate, err)
	}
	return append(buf.b, '\n'), nil
}

type byteWriter struct {
	b []byte
}

func (bw *byteWriter) Write(p []byte) (int, error) {
	bw.b = append(bw.b, p...)
	return len(p), nil
}
