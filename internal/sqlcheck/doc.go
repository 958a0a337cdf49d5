// Package sqlcheck enforces the read-only SQL security policy and performs a
// best-effort rewrite of ambiguous column references in joined queries.
package sqlcheck
