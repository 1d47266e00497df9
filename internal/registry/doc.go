// Package registry owns the fleet: the mapping from vehicle identity to the
// latest readings of that vehicle, guarded by a single lock.
//
// Every operation (Ingest, Status, AverageScore, Snapshot, HasVehicle, ...)
// runs inside one critical section over the whole map, so fleet-wide reads
// such as AverageScore and Statuses observe one consistent instant. Vehicles
// never leave the package by reference; callers only receive copies.
//
// Operations never fail. Unknown or incomplete vehicles produce a well-formed
// Status with HasAll=false instead of an error.
package registry
