// Package ingest is the line-oriented bulk loader that feeds diagnostics into
// the registry.
//
// Record format, one per line:
//
//	VehicleId, SensorKind, Value
//
// Fields are trimmed. Blank lines and lines starting with '#' (after leading
// whitespace) are skipped. SensorKind matches RPM, EngineLoad or CoolantTemp
// case-insensitively. Fields after the third are ignored.
//
// Bad lines never abort a load: each becomes a LineError in Result.Errors, in
// line order, and loading continues. The only fatal outcome is a source with
// zero valid rows, reported as ErrNoValidRows.
package ingest
