// Package log provides the generation trace for fut-gen.
//
// Every decision taken while expanding a test declaration (an entry kept,
// dropped by a compatibility filter, flagged with skip/xfail/ignore, or a
// generator selected) is reported to a Logger as an Event. The trace is
// separate from operational logging (slog): it is a complete machine-readable
// record of why a parameter set is or is not present in the output.
//
// # Basic Usage
//
//	// Development: print decisions through slog
//	opts.Trace = log.NewSlogAdapter(slog.Default())
//
//	// Persist the trace for later analysis
//	fl, _ := log.NewFileLogger("run.ftrace")
//	defer fl.Close()
//	opts.Trace = log.NewMultiLogger(log.NewSlogAdapter(logger), fl)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with the .ftrace
// extension. "fut-gen trace view" and "fut-gen trace stats" read them back.
package log
