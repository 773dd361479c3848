package service

import "github.com/pkg/errors"

// Caller-facing error taxonomy. All of these mark a rejected request, never
// an engine crash; only ErrConcurrentModification is worth an automatic
// retry (re-read state, re-validate, retry once).
var (
	ErrNoActiveWorkflow       = errors.New("no active workflow for dossier")
	ErrAlreadyInitialized     = errors.New("workflow already initialized for dossier")
	ErrNoForwardEdge          = errors.New("no forward edge from current phase")
	ErrNoBackwardEdge         = errors.New("no backward edge from current phase")
	ErrUnauthorized           = errors.New("caller not authorized at current phase")
	ErrConcurrentModification = errors.New("workflow modified concurrently, re-read and retry")
)
