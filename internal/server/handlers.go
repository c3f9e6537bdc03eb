package server

import (
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"

	"github.com/san-kum/pidtune/internal/analysis"
	"github.com/san-kum/pidtune/internal/export"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/smoothing"
	"github.com/san-kum/pidtune/internal/storage"
)

const (
	maxUploadBytes = 32 << 20
	maxNumPoints   = 100000
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"service": "pidtune",
		"endpoints": []string{
			"POST /upload", "POST /identify", "POST /tune", "POST /plot",
			"POST /analyze-filter", "GET /datasets", "GET /plots/{name}", "GET /metrics",
		},
	})
}

// savePlot renders p under the plots directory and returns its public path.
func (s *Server) savePlot(p *plot.Plot, prefix string) (string, error) {
	name := fmt.Sprintf("%s_%s.png", prefix, uuid.NewString())
	if err := export.SavePNG(p, filepath.Join(s.store.PlotsDir(), name)); err != nil {
		return "", err
	}
	return "/plots/" + name, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, r, badRequest("parse upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, badRequest("file is required"))
		return
	}
	defer file.Close()

	exp, err := storage.ParseCSV(file)
	if err != nil {
		s.fail(w, r, badRequest("%v", err))
		return
	}
	meta, err := s.store.Save(header.Filename, exp)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := export.RawPlot(exp)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plotPath, err := s.savePlot(p, "raw_"+meta.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"file_id":      meta.ID,
		"message":      "dataset uploaded",
		"plot_path":    plotPath,
		"data_summary": meta.Summary,
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []storage.DatasetMetadata{}
	}
	respond(w, http.StatusOK, list)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.Load(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, meta)
}

// loadDataset reads file_id from the form and loads its experiment.
func (s *Server) loadDataset(r *http.Request) (process.Experiment, error) {
	id, err := formRequired(r, "file_id")
	if err != nil {
		return process.Experiment{}, err
	}
	return s.store.LoadExperiment(id)
}

func (s *Server) smoothingConfig(r *http.Request) (smoothing.Config, error) {
	cfg := s.cfg.Smoothing
	var err error
	if cfg.WindowLength, err = formInt(r, "window_length", cfg.WindowLength); err != nil {
		return cfg, err
	}
	if cfg.PolynomialOrder, err = formInt(r, "polyorder", cfg.PolynomialOrder); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type identifyResponse struct {
	K            float64 `json:"k"`
	Tau          float64 `json:"tau"`
	Theta        float64 `json:"theta"`
	T1           float64 `json:"t1"`
	T2           float64 `json:"t2"`
	Y1           float64 `json:"y1"`
	Y2           float64 `json:"y2"`
	PlotPath     string  `json:"plot_path"`
	FilterParams struct {
		WindowLength  int     `json:"window_length"`
		PolyOrder     int     `json:"polyorder"`
		OffsetPercent float64 `json:"offset_percent"`
	} `json:"filter_params"`
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	exp, err := s.loadDataset(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	method, err := formMethod(r, s.cfg.Method)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	smooth, err := s.smoothingConfig(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := formFloat(r, "offset_percent", s.cfg.OffsetPercent)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if offset < 0 || offset >= 100 {
		s.fail(w, r, badRequest("offset_percent must be in [0, 100)"))
		return
	}

	id, err := pipeline.Identify(exp, method, offset, smooth)
	if err != nil {
		s.metrics.identified.WithLabelValues(string(method), "error").Inc()
		s.fail(w, r, err)
		return
	}
	s.metrics.identified.WithLabelValues(string(method), "ok").Inc()

	p, err := export.IdentificationPlot(exp, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plotPath, err := s.savePlot(p, "identification")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"method": method,
		"model":  id.Model.String(),
	}).Info("identified")

	resp := identifyResponse{
		K:        id.Model.Gain,
		Tau:      id.Model.TimeConstant,
		Theta:    id.Model.DeadTime,
		T1:       id.T1,
		T2:       id.T2,
		Y1:       id.Y1,
		Y2:       id.Y2,
		PlotPath: plotPath,
	}
	resp.FilterParams.WindowLength = id.Smoothing.WindowLength
	resp.FilterParams.PolyOrder = id.Smoothing.PolynomialOrder
	resp.FilterParams.OffsetPercent = id.OffsetPercent
	respond(w, http.StatusOK, resp)
}

type gains struct {
	Kp     float64  `json:"Kp"`
	Ti     float64  `json:"Ti"`
	Td     float64  `json:"Td"`
	Lambda *float64 `json:"lambda,omitempty"`
}

func gainsOf(pids []process.PID) map[string]gains {
	out := make(map[string]gains, len(pids))
	for _, p := range pids {
		g := gains{Kp: p.Kp, Ti: p.Ti, Td: p.Td}
		if p.Rule == process.RuleIMC {
			lambda := p.Lambda
			g.Lambda = &lambda
		}
		out[string(p.Rule)] = g
	}
	return out
}

func (s *Server) tuneForm(r *http.Request) (process.FOPDT, float64, []process.PID, error) {
	m, err := formModel(r)
	if err != nil {
		return m, 0, nil, err
	}
	lambda, err := formFloat(r, "lam", s.cfg.Lambda)
	if err != nil {
		return m, 0, nil, err
	}
	pids, err := pipeline.TuneAll(m, lambda)
	if err != nil {
		return m, 0, nil, err
	}
	return m, lambda, pids, nil
}

func (s *Server) handleTune(w http.ResponseWriter, r *http.Request) {
	_, _, pids, err := s.tuneForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, gainsOf(pids))
}

// compare simulates pids on m, consulting the cache first.
func (s *Server) compare(r *http.Request, m process.FOPDT, lambda, simTime float64, numPoints int, pids []process.PID) ([]pipeline.Outcome, error) {
	key := simKey(m, lambda, simTime, numPoints, s.cfg.Simulation)
	if outcomes, ok := s.cache.get(key); ok {
		s.metrics.cache.WithLabelValues("hit").Inc()
		return outcomes, nil
	}
	s.metrics.cache.WithLabelValues("miss").Inc()

	outcomes, err := pipeline.SimulateAndAnalyze(r.Context(), m, pids, simTime, numPoints, s.cfg.Simulation)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		s.metrics.simulations.WithLabelValues(string(o.PID.Rule), strconv.FormatBool(o.Response.Stable)).Inc()
	}
	s.cache.set(key, outcomes)
	return outcomes, nil
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	m, lambda, pids, err := s.tuneForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	simTime, err := formFloat(r, "simulation_time", s.cfg.SimTime)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	numPoints, err := formInt(r, "num_points", s.cfg.NumPoints)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if math.IsNaN(simTime) || math.IsInf(simTime, 0) || simTime <= 0 || numPoints < 2 || numPoints > maxNumPoints {
		s.fail(w, r, badRequest("simulation_time must be finite and positive and num_points between 2 and %d", maxNumPoints))
		return
	}

	outcomes, err := s.compare(r, m, lambda, simTime, numPoints, pids)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := export.ResponsePlot(outcomes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plotPath, err := s.savePlot(p, "response")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	perf := make(map[string]process.Performance, len(outcomes))
	for _, o := range outcomes {
		perf[string(o.PID.Rule)] = o.Performance
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"plot_path":   plotPath,
		"metrics":     perf,
		"controllers": gainsOf(pids),
	})
}

func (s *Server) handleAnalyzeFilter(w http.ResponseWriter, r *http.Request) {
	exp, err := s.loadDataset(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	order, err := formInt(r, "polyorder", analysis.DefaultPolynomialOrder)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	windows := formWindows(r, analysis.DefaultWindows)

	results, err := analysis.AnalyzeFilters(exp.Time, exp.Output, windows, order)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := export.FilterPlot(exp.Time, exp.Output, results)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plotPath, err := s.savePlot(p, "filters")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"plot_path":      plotPath,
		"filter_results": results,
	})
}
