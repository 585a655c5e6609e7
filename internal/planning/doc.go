// Package planning is the aggregation engine behind the planner's timeline,
// budget and vendor pages.
//
// Every function here is a pure transformation over a snapshot of
// domain.PlanningItem values: the reference time is always passed in, input
// slices are never modified, and no state is kept between calls. Callers may
// invoke the engine from any number of goroutines.
package planning
