// Package gemini implements the AI-facing interfaces of the pipeline
// (SQL generation, result summarization, chart advice) on top of Google's
// Gemini API. All API calls share one retry policy: transient failures are
// retried with exponential backoff and jitter, permanent failures (blocked
// content, unparseable responses) are returned immediately.
package gemini
