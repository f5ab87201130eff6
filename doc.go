// Package vrsinject injects foveated variable rate shading into an
// application's rendering without its cooperation. The host intercepts three
// events from the graphics API and forwards them here: viewport binding on a
// command list, command list submission to a queue, and swapchain present.
//
// On eligible viewports the injector binds a cached shading rate map, a
// small GPU texture holding one shading density byte per screen tile,
// centered on the user's gaze when an eye tracker is attached and on the
// screen center otherwise. Maps are generated asynchronously on a dedicated
// GPU timeline; the injector inserts queue waits at submission so rendering
// never consumes a half-written map, and never blocks the CPU to do it.
//
// Devices without tier 2 variable rate shading are handled in passthrough
// mode, where every entry point is a no-op.
//
// Typical wiring from an interception layer:
//
//	inj := vrsinject.New(vrsinject.WithGazeProvider(tracker.Attach))
//
//	// from the RSSetViewports hook:
//	inj.OnSetViewports(cl, viewports)
//
//	// from the ExecuteCommandLists hook:
//	inj.OnExecuteCommandLists(q, cls)
//
//	// from the Present hook:
//	inj.OnFramePresent(swapchain)
package vrsinject
