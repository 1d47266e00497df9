// Package workload generates synthetic sensor traffic against a fleet to
// exercise its locking discipline and measure throughput.
//
// Run seeds Car1..Car3 when the fleet is empty, then performs Iterations
// rounds. Each round re-reads the current vehicle IDs and, for every ID,
// ingests one RPM, one EngineLoad and one CoolantTemp reading followed by one
// status query. Readings are drawn uniformly from RPM [600,7000],
// EngineLoad [0,100] and CoolantTemp [70,130].
//
// In concurrent mode every worker runs the full loop over the same shared
// IDs; workers race on the same vehicles rather than partitioning them.
// Each worker owns a PCG generator seeded from (Seed, worker index), so runs
// are reproducible. There is no cancellation: Run returns when every worker
// has finished.
package workload
