// Package pipeline provides a streaming pipeline of concurrent steps connected by channels.
//
// A pipeline starts with one or more root steps producing elements, transforms them through normal steps,
// optionally merges several streams into one, and ends with a sink. Each step runs in its own goroutines and
// elements flow between steps through unbuffered channels.
//
// The pipeline stops on the first error: the shared context is cancelled, every step returns, and Run reports
// the error decorated with the name of the step which produced it.
//
// Options implementing model.PipelineOption are notified when steps are added and whenever a step produces an
// output. The measure package records step durations this way and the drawer package draws the steps.
package pipeline
