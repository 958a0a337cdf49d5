// Package generation defines the boundary to external AI/LLM services used by
// the query pipeline: SQL generation from a natural-language question and
// summarization of a query result. It abstracts the details of LLM API
// integration (Gemini) so the orchestrator never couples to a specific
// external service.
package generation
