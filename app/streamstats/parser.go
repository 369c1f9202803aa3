package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fastjson"
	"github.com/valyala/fastjson/fastfloat"
)

// Supported input formats.
const (
	formatLines = "lines"
	formatCSV   = "csv"
	formatJSON  = "json"
)

const maxLineSize = 1024 * 1024

// parseConfig contains input parsing settings.
type parseConfig struct {
	format string

	csvColumn     int
	csvDelimiter  rune
	csvSkipHeader bool

	jsonField []string
}

func newParseConfig(format string, csvColumn int, csvDelimiter string, csvSkipHeader bool, jsonField string) (*parseConfig, error) {
	pc := &parseConfig{
		format:        format,
		csvColumn:     csvColumn,
		csvSkipHeader: csvSkipHeader,
	}
	switch format {
	case formatLines:
	case formatCSV:
		if csvColumn < 0 {
			return nil, fmt.Errorf("-%s cannot be negative; got %d", summarizeCSVColumn, csvColumn)
		}
		r, size := utf8.DecodeRuneInString(csvDelimiter)
		if size == 0 || size != len(csvDelimiter) || r == utf8.RuneError || r == '"' || r == '\n' || r == '\r' {
			return nil, fmt.Errorf("-%s must be a single character other than quote or newline; got %q", summarizeCSVDelim, csvDelimiter)
		}
		pc.csvDelimiter = r
	case formatJSON:
		if jsonField == "" {
			return nil, fmt.Errorf("-%s cannot be empty", summarizeJSONField)
		}
		pc.jsonField = strings.Split(jsonField, ".")
	default:
		return nil, fmt.Errorf("unsupported -%s=%q; supported values: %s, %s, %s", summarizeFormat, format, formatLines, formatCSV, formatJSON)
	}
	return pc, nil
}

// sampleHandler receives parsed samples and parse errors.
type sampleHandler interface {
	// addSample registers the sample x read at the given line.
	addSample(line int, x float64) error

	// rejectSample is called for the unparsable sample at the given line.
	rejectSample(line int, err error) error
}

// parseStream reads samples from r in the pc.format and passes them to h.
func parseStream(r io.Reader, pc *parseConfig, h sampleHandler) error {
	switch pc.format {
	case formatLines:
		return parseLines(r, h)
	case formatCSV:
		return parseCSV(r, pc, h)
	case formatJSON:
		return parseJSON(r, pc, h)
	default:
		return fmt.Errorf("BUG: unexpected format %q", pc.format)
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// parseLines reads a sample per line. Empty lines and lines starting with # are skipped.
func parseLines(r io.Reader, h sampleHandler) error {
	sc := newLineScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		x, err := fastfloat.Parse(s)
		if err != nil {
			err = fmt.Errorf("cannot parse %q: %w", s, err)
			if err := h.rejectSample(line, err); err != nil {
				return err
			}
			continue
		}
		if err := h.addSample(line, x); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cannot read line #%d: %w", line+1, err)
	}
	return nil
}

func parseCSV(r io.Reader, pc *parseConfig, h sampleHandler) error {
	cr := csv.NewReader(r)
	cr.Comma = pc.csvDelimiter
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	skipHeader := pc.csvSkipHeader
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("cannot read csv record: %w", err)
			}
			if err := h.rejectSample(pe.Line, err); err != nil {
				return err
			}
			continue
		}
		line, _ := cr.FieldPos(0)
		if skipHeader {
			skipHeader = false
			continue
		}
		if pc.csvColumn >= len(record) {
			err := fmt.Errorf("missing column #%d; the record contains %d columns", pc.csvColumn, len(record))
			if err := h.rejectSample(line, err); err != nil {
				return err
			}
			continue
		}
		s := strings.TrimSpace(record[pc.csvColumn])
		x, err := fastfloat.Parse(s)
		if err != nil {
			err = fmt.Errorf("cannot parse column #%d value %q: %w", pc.csvColumn, s, err)
			if err := h.rejectSample(line, err); err != nil {
				return err
			}
			continue
		}
		if err := h.addSample(line, x); err != nil {
			return err
		}
	}
}

// parseJSON reads a JSON value per line.
//
// Every line may contain an object with the numeric pc.jsonField, an array of numbers or a number.
func parseJSON(r io.Reader, pc *parseConfig, h sampleHandler) error {
	p := parserPool.Get()
	defer parserPool.Put(p)

	sc := newLineScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		v, err := p.Parse(s)
		if err != nil {
			if err := h.rejectSample(line, fmt.Errorf("cannot parse JSON: %w", err)); err != nil {
				return err
			}
			continue
		}
		if err := handleJSONValue(v, line, pc, h); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cannot read line #%d: %w", line+1, err)
	}
	return nil
}

var parserPool fastjson.ParserPool

func handleJSONValue(v *fastjson.Value, line int, pc *parseConfig, h sampleHandler) error {
	switch v.Type() {
	case fastjson.TypeObject:
		fv := v.Get(pc.jsonField...)
		if fv == nil {
			return h.rejectSample(line, fmt.Errorf("missing field %q", strings.Join(pc.jsonField, ".")))
		}
		x, err := fv.Float64()
		if err != nil {
			return h.rejectSample(line, fmt.Errorf("cannot read field %q: %w", strings.Join(pc.jsonField, "."), err))
		}
		return h.addSample(line, x)
	case fastjson.TypeArray:
		a, _ := v.Array()
		for i, item := range a {
			x, err := item.Float64()
			if err != nil {
				if err := h.rejectSample(line, fmt.Errorf("cannot read array item #%d: %w", i, err)); err != nil {
					return err
				}
				continue
			}
			if err := h.addSample(line, x); err != nil {
				return err
			}
		}
		return nil
	case fastjson.TypeNumber:
		x, _ := v.Float64()
		return h.addSample(line, x)
	default:
		return h.rejectSample(line, fmt.Errorf("unexpected JSON value type %s; want object, array or number", v.Type()))
	}
}
