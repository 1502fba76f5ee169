package pipeline

import "errors"

var (
	// ErrFatal marks orchestration-fatal conditions: the only errors
	// that terminate a run without producing a result. Everything else
	// degrades into per-phase stats.
	ErrFatal = errors.New("fatal orchestration error")

	// ErrAlreadyRan signals that Run was called twice on one
	// orchestrator. Orchestrators are single-use; run state and the
	// frontier are not reusable.
	ErrAlreadyRan = errors.New("orchestrator already ran")
)
