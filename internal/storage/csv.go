package storage

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/pidtune/internal/process"
)

// ParseCSV reads time, output and input from the first three columns. A
// leading non-numeric row is taken as a header. Semicolon-separated files
// are accepted.
func ParseCSV(r io.Reader) (process.Experiment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return process.Experiment{}, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = sniffDelimiter(data)

	records, err := cr.ReadAll()
	if err != nil {
		return process.Experiment{}, errors.Wrap(err, "parse csv")
	}

	var exp process.Experiment
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) < 3 {
			return process.Experiment{}, errors.Errorf("row %d: expected 3 columns (time, output, input), got %d", i+1, len(rec))
		}

		vals := make([]float64, 3)
		bad := false
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				bad = true
				break
			}
			vals[j] = v
		}
		if bad {
			if exp.Len() == 0 && i == firstRow(records) {
				continue
			}
			return process.Experiment{}, errors.Errorf("row %d: non-numeric value", i+1)
		}

		exp.Time = append(exp.Time, vals[0])
		exp.Output = append(exp.Output, vals[1])
		exp.Input = append(exp.Input, vals[2])
	}

	if exp.Len() == 0 {
		return process.Experiment{}, &process.SeriesError{Index: -1, Reason: "no data rows"}
	}
	return exp, nil
}

// WriteCSV writes a header row followed by one row per sample.
func WriteCSV(w io.Writer, exp process.Experiment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "output", "input"}); err != nil {
		return err
	}
	for i := 0; i < exp.Len(); i++ {
		row := []string{
			strconv.FormatFloat(exp.Time[i], 'g', -1, 64),
			strconv.FormatFloat(exp.Output[i], 'g', -1, 64),
			strconv.FormatFloat(exp.Input[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func firstRow(records [][]string) int {
	for i, rec := range records {
		if len(rec) > 1 || (len(rec) == 1 && strings.TrimSpace(rec[0]) != "") {
			return i
		}
	}
	return -1
}
