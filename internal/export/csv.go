package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/pidtune/internal/pipeline"
)

// WriteResponsesCSV writes one row per sample: time, then output and
// tracking error for each controller. All outcomes must share the time grid.
func WriteResponsesCSV(w io.Writer, outcomes []pipeline.Outcome) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("no responses to export")
	}
	n := len(outcomes[0].Response.Time)
	for _, o := range outcomes[1:] {
		if len(o.Response.Time) != n {
			return fmt.Errorf("responses have different lengths (%d and %d)", n, len(o.Response.Time))
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, o := range outcomes {
		header = append(header, "y_"+string(o.PID.Rule), "e_"+string(o.PID.Rule))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		row := []string{strconv.FormatFloat(outcomes[0].Response.Time[i], 'f', 6, 64)}
		for _, o := range outcomes {
			y := o.Response.Output[i]
			row = append(row,
				strconv.FormatFloat(y, 'f', 6, 64),
				strconv.FormatFloat(1-y, 'f', 6, 64),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
