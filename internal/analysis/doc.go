// Package analysis compares smoothing settings on a measured series.
//
// For each candidate window the smoothed series is scored by:
//
//   - noise reduction: std(y − y_f) / std(y)
//   - signal preservation: correlation of y and y_f
//   - residual frequency: dominant frequency of y − y_f
//
// # Example
//
//	results, err := analysis.AnalyzeFilters(exp.Time, exp.Output, analysis.DefaultWindows, 2)
package analysis
