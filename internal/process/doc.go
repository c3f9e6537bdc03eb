// Package process defines the value types shared by the identification,
// tuning and simulation stages.
//
// Each stage produces an immutable value consumed by the next one:
//
//   - [Experiment]: captured step test (time, output, input on one time base)
//   - [FOPDT]: first-order-plus-dead-time model identified from the experiment
//   - [PID]: controller parameters synthesized from the model
//   - [Response]: closed-loop unit-step response of controller and plant
//   - [Performance]: metrics extracted from a response
//
// # Errors
//
// Failures are reported as typed errors that carry the offending values.
// Every typed error matches one of the package sentinels with [errors.Is]:
//
//	if errors.Is(err, process.ErrLevelNotReached) {
//	    // retry with a different smoothing window or offset
//	}
//
// None of the values hold shared mutable state, so any number of pipelines
// may run in parallel without synchronization.
package process
