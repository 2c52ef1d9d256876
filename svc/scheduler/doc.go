// Package scheduler runs the periodic tick loops that feed the job queue.
//
// Two schedulers exist: the content scheduler turns due schedules into
// generation jobs, and the analytics scheduler refreshes metrics of recently
// published posts. Both guard their tick with a distributed lock so exactly
// one instance in the fleet runs a tick at a time; an instance that loses
// the race simply skips its tick. Failures of a single work item are logged
// and do not abort the rest of the batch.
package scheduler
