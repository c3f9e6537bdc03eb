// Package export renders pipeline results as JSON, CSV, SVG and PNG.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

type ControllerExport struct {
	PID         process.PID         `json:"pid"`
	Performance process.Performance `json:"performance"`
	Stable      bool                `json:"stable"`
	Time        []float64           `json:"time"`
	Output      []float64           `json:"output"`
	Error       []float64           `json:"error"`
}

type ComparisonExport struct {
	Model       process.FOPDT      `json:"model"`
	Steps       int                `json:"steps"`
	Controllers []ControllerExport `json:"controllers"`
}

func NewComparison(m process.FOPDT, outcomes []pipeline.Outcome) ComparisonExport {
	data := ComparisonExport{
		Model:       m,
		Controllers: make([]ControllerExport, len(outcomes)),
	}
	for i, o := range outcomes {
		data.Controllers[i] = ControllerExport{
			PID:         o.PID,
			Performance: o.Performance,
			Stable:      o.Response.Stable,
			Time:        o.Response.Time,
			Output:      o.Response.Output,
			Error:       o.Response.TrackingError(),
		}
		if n := len(o.Response.Time); n > data.Steps {
			data.Steps = n
		}
	}
	return data
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func ExportJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, v)
}
