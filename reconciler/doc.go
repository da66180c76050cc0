// Package reconciler keeps a host surface in sync with a tree of declarative
// elements.
//
// Updates are queued on lanes and rendered one lane per pass. A pass builds a
// work-in-progress copy of the committed fiber tree, running every function
// component with a fresh *RenderContext, then commits the finished tree in one
// step and applies the collected host mutations through a HostAdapter. Effects
// run afterwards in a separate, lower priority passive pass.
//
//	loop := scheduler.NewLoop()
//	r := reconciler.New(host, loop)
//	root := r.CreateRoot(container)
//	r.UpdateRoot(root, fiber.Element{Type: App})
//	loop.Flush()
//
// Render passes for non-sync lanes yield to the scheduler between fibers. A
// more urgent update arriving in between restarts the pass from the root.
package reconciler
