package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidtune/internal/analysis"
	"github.com/san-kum/pidtune/internal/config"
	"github.com/san-kum/pidtune/internal/export"
	"github.com/san-kum/pidtune/internal/linsys"
	"github.com/san-kum/pidtune/internal/metrics"
	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/server"
	"github.com/san-kum/pidtune/internal/storage"
	"github.com/san-kum/pidtune/internal/tui"
)

func importDataset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	exp, err := storage.ParseCSV(f)
	if err != nil {
		return err
	}
	name := datasetTag
	if name == "" {
		name = filepath.Base(args[0])
	}
	meta, err := st.Save(name, exp)
	if err != nil {
		return err
	}

	fmt.Printf("dataset id: %s\n", meta.ID)
	printSummary(meta.Summary)
	return nil
}

func listDatasets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	list, err := st.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no datasets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSAMPLES\tSPAN")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4g-%.4g\n",
			d.ID,
			d.Name,
			d.Timestamp.Format("2006-01-02 15:04:05"),
			d.Summary.Samples,
			d.Summary.TimeRange[0], d.Summary.TimeRange[1],
		)
	}
	return w.Flush()
}

func printSummary(s process.Summary) {
	fmt.Printf("samples: %d\n", s.Samples)
	fmt.Printf("time:    %.4g .. %.4g\n", s.TimeRange[0], s.TimeRange[1])
	fmt.Printf("output:  %.4g .. %.4g\n", s.OutputRange[0], s.OutputRange[1])
	fmt.Printf("input:   %.4g .. %.4g\n", s.InputRange[0], s.InputRange[1])
}

func summarizeDataset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	exp, err := st.LoadExperiment(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s (%s)\n", meta.ID, meta.Name)
	printSummary(meta.Summary)
	fmt.Println()
	fmt.Println(asciigraph.Plot(exp.Output,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("output"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(exp.Input,
		asciigraph.Height(5),
		asciigraph.Width(80),
		asciigraph.Caption("input"),
	))
	return nil
}

func loadExperiment(cfg *config.Config, id string) (process.Experiment, error) {
	st, err := openStore(cfg)
	if err != nil {
		return process.Experiment{}, err
	}
	return st.LoadExperiment(id)
}

func identifyDataset(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	exp, err := loadExperiment(cfg, args[0])
	if err != nil {
		return err
	}

	id, err := pipeline.Identify(exp, pc.Method, pc.OffsetPercent, pc.Smoothing)
	if err != nil {
		return err
	}

	fmt.Printf("method:  %s\n", id.Method)
	fmt.Printf("filter:  window=%d polyorder=%d offset=%.1f%%\n", id.Smoothing.WindowLength, id.Smoothing.PolynomialOrder, id.OffsetPercent)
	fmt.Printf("t1=%.4g (y1=%.4g)  t2=%.4g (y2=%.4g)\n", id.T1, id.Y1, id.T2, id.Y2)
	fmt.Printf("K=%.6g  tau=%.6g  theta=%.6g\n", id.Model.Gain, id.Model.TimeConstant, id.Model.DeadTime)

	if pngOut != "" {
		p, err := export.IdentificationPlot(exp, id)
		if err != nil {
			return err
		}
		if err := export.SavePNG(p, pngOut); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngOut)
	}
	return nil
}

func printPIDs(pids []process.PID) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tKp\tTi\tTd\tLAMBDA")
	for _, p := range pids {
		l := "-"
		if p.Rule == process.RuleIMC {
			l = fmt.Sprintf("%.4g", p.Lambda)
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%s\n", p.Rule, p.Kp, p.Ti, p.Td, l)
	}
	w.Flush()
}

func tuneModel(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	m, err := resolveModel(cfg, pc)
	if err != nil {
		return err
	}

	if rule != "" {
		r, err := process.ParseRule(rule)
		if err != nil {
			return err
		}
		p, err := pipeline.Tune(m, r, pc.Lambda)
		if err != nil {
			return err
		}
		printPIDs([]process.PID{p})
		return nil
	}

	pids, err := pipeline.TuneAll(m, pc.Lambda)
	if err != nil {
		return err
	}
	printPIDs(pids)
	return nil
}

func printPerformance(outcomes []pipeline.Outcome) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tSTABLE\tRISE\tOVERSHOOT\tSETTLING\tIAE\tISE\tITAE")
	for _, o := range outcomes {
		p := o.Performance
		fmt.Fprintf(w, "%s\t%t\t%.4g\t%.2f%%\t%.4g\t%.4g\t%.4g\t%.4g\n",
			o.PID.Rule, o.Response.Stable, p.RiseTime, p.OvershootPercent, p.SettlingTime, p.IAE, p.ISE, p.ITAE)
	}
	w.Flush()
}

func simulateLoop(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	m, err := resolveModel(cfg, pc)
	if err != nil {
		return err
	}
	r, err := process.ParseRule(rule)
	if err != nil {
		return err
	}
	pid, err := pipeline.Tune(m, r, pc.Lambda)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := linsys.Simulate(cmd.Context(), pid, m, pc.SimTime, pc.NumPoints, pc.Simulation)
	if err != nil {
		return err
	}
	outcomes := []pipeline.Outcome{{PID: pid, Response: resp, Performance: metrics.AnalyzeResponse(resp)}}

	printPIDs([]process.PID{pid})
	fmt.Println()
	printPerformance(outcomes)
	fmt.Printf("\nsimulated %d points in %v (%s)\n\n", len(resp.Time), time.Since(start).Round(time.Millisecond), pc.Simulation.Method)
	fmt.Println(tui.Chart(outcomes, 80, 12, fmt.Sprintf("%s step response", pid.Rule)))
	return nil
}

func writeOutputs(outcomes []pipeline.Outcome) error {
	if pngOut != "" {
		p, err := export.ResponsePlot(outcomes)
		if err != nil {
			return err
		}
		if err := export.SavePNG(p, pngOut); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngOut)
	}
	if svgOut != "" {
		svg := export.SeriesToSVG(export.ResponsesToSeries(outcomes), 800, 480)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("svg: %s\n", svgOut)
	}
	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteResponsesCSV(f, outcomes); err != nil {
			return err
		}
		fmt.Printf("csv: %s\n", csvOut)
	}
	return nil
}

func compareLoops(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	m, err := resolveModel(cfg, pc)
	if err != nil {
		return err
	}
	pids, err := pipeline.TuneAll(m, pc.Lambda)
	if err != nil {
		return err
	}

	outcomes, err := pipeline.New(pc).Compare(cmd.Context(), m, pids)
	if err != nil {
		return err
	}

	printPIDs(pids)
	fmt.Println()
	printPerformance(outcomes)
	fmt.Println()
	fmt.Println(tui.Chart(outcomes, 80, 12, "closed-loop step response"))
	fmt.Println(tui.Legend(outcomes))
	return writeOutputs(outcomes)
}

func analyzeFilters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := loadExperiment(cfg, args[0])
	if err != nil {
		return err
	}
	order, err := cmd.Flags().GetInt("polyorder")
	if err != nil {
		return err
	}

	results, err := analysis.AnalyzeFilters(exp.Time, exp.Output, windows, order)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WINDOW\tORDER\tNOISE_REDUCTION\tPRESERVATION\tRESIDUAL_FREQ")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.4g\n", r.WindowLength, r.PolynomialOrder, r.NoiseReduction, r.SignalPreservation, r.ResidualFrequency)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if pngOut != "" {
		p, err := export.FilterPlot(exp.Time, exp.Output, results)
		if err != nil {
			return err
		}
		if err := export.SavePNG(p, pngOut); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngOut)
	}
	return nil
}

func runReport(cmd *cobra.Command, id string) (*pipeline.RunReport, error) {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return nil, err
	}
	exp, err := loadExperiment(cfg, id)
	if err != nil {
		return nil, err
	}
	return pipeline.New(pc).Run(cmd.Context(), exp)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	report, err := runReport(cmd, args[0])
	if err != nil {
		return err
	}

	id := report.Identification
	fmt.Printf("identified (%s): %s\n\n", id.Method, id.Model)
	pids := make([]process.PID, len(report.Controllers))
	for i, o := range report.Controllers {
		pids[i] = o.PID
	}
	printPIDs(pids)
	fmt.Println()
	printPerformance(report.Controllers)
	fmt.Println()
	fmt.Println(tui.Chart(report.Controllers, 80, 12, "closed-loop step response"))
	fmt.Println(tui.Legend(report.Controllers))
	return writeOutputs(report.Controllers)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	report, err := runReport(cmd, args[0])
	if err != nil {
		return err
	}
	data := export.NewComparison(report.Identification.Model, report.Controllers)
	if jsonOut == "" {
		return export.WriteJSON(os.Stdout, data)
	}
	if err := export.ExportJSON(jsonOut, data); err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", jsonOut)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(storage.New(cfg.Server.DataDir), pc, cfg.Server.CacheEntries)
	if err != nil {
		return err
	}
	defer srv.Close()

	logrus.WithFields(logrus.Fields{
		"addr":     cfg.Server.Addr,
		"data_dir": cfg.Server.DataDir,
	}).Info("starting server")
	return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	m, err := resolveModel(cfg, pc)
	if err != nil {
		return err
	}
	// keep log lines out of the alternate screen
	logrus.SetLevel(logrus.ErrorLevel)
	return tui.Run(m, pc)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

func sweepLambda(cmd *cobra.Command, args []string) error {
	cfg, pc, err := loadPipeline(cmd)
	if err != nil {
		return err
	}
	m, err := resolveModel(cfg, pc)
	if err != nil {
		return err
	}
	c, err := optim.ParseCriterion(criterion)
	if err != nil {
		return err
	}

	search := optim.NewSearch(pc.SimTime, pc.NumPoints, pc.Simulation)
	res, err := search.Run(cmd.Context(), m, optim.Grid(lambdaMin, lambdaMax, steps), c)
	if res != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "LAMBDA\tKp\tSTABLE\t%s\n", strings.ToUpper(string(c)))
		for _, p := range res.Points {
			mark := ""
			if err == nil && p.Lambda == res.Best.Lambda {
				mark = "  <"
			}
			fmt.Fprintf(w, "%.4g\t%.4g\t%t\t%.5g%s\n", p.Lambda, p.PID.Kp, p.Stable, p.Score, mark)
		}
		w.Flush()
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest lambda: %.4g (%s=%.5g)\n", res.Best.Lambda, c, res.Best.Score)
	return nil
}
