package driven

import "context"

// TaskQueue runs background units of work decoupled from the request that
// enqueued them. Tagging jobs go through here so that upload responses never
// wait on the detector. Implementations bound concurrency to protect
// downstream models from overload.
type TaskQueue interface {
	// Enqueue schedules the task for execution and returns immediately.
	// The task receives a context independent of the enqueuing request.
	Enqueue(name string, task func(ctx context.Context))

	// Close stops accepting new tasks and waits for in-flight tasks.
	Close()
}
