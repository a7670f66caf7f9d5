// Package pipeline runs URLs through a sequence of steps.
//
// A Job carries one URL through the pipeline: the score step produces the
// prediction, the lookup step fetches the previous verdict from history
// and the persist step stores the new one. BatchProcessor runs many jobs
// concurrently with errgroup while keeping results in input order.
package pipeline
