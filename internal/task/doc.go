// Package task provides the asynchronous execution substrate: a unit of
// deferred work with an observable lifecycle, a FIFO queue, a registry for
// lookup and best-effort cancellation, and a fixed-size worker pool that
// drains the queue. Expensive pipeline work runs here so the presentation
// layer stays responsive.
package task
