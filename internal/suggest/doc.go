// Package suggest provides directory name suggestions for probing
// phases, backed by an LLM behind a strict daily budget.
//
// The service never fails its callers: exhausted budget, generator
// errors, and timeouts all degrade to a deterministic static fallback
// list. Responses are cached by prompt hash so repeated questions
// within a run cost nothing.
package suggest
