// Package types defines the value types shared by every garagemon package:
// the sensor kinds a vehicle reports, a single Reading, and the Diagnostic
// record produced by ingestion adapters.
//
// SensorKind round-trips through text with String/ParseSensorKind. Parsing is
// whitespace-tolerant and case-insensitive ("  rpm ", "RPM" and "Rpm" are the
// same kind); anything unrecognised yields Unknown, which is never stored.
package types
