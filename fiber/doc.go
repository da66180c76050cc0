// Package fiber holds the reconciler's data model: the double-buffered fiber
// tree, the per-mount FiberRoot, lane-tagged update queues, hooks and effect
// records.
//
// Every tree link is a plain pointer. A committed fiber and its
// work-in-progress copy reference each other through Alternate; the garbage
// collector handles the two-cycle, so no arena is needed.
package fiber
