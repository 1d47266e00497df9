// Package vehicle holds the latest reading per sensor kind for one vehicle and
// derives its performance score.
//
// score.go provides the pure Score formula and the alert classification:
//
//	score = 100 - (rpm/100 + engine_load*0.5 + (coolant_temp-90)*2)
//
// The score is unbounded; it may be negative or exceed 100. It is only
// defined once all three sensor kinds have reported ("complete").
//
// vehicle.go provides Vehicle, a plain value with no locking of its own. The
// registry owns every Vehicle and hands out copies.
package vehicle
