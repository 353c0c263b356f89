package record

import (
	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
)

// Session exposes the state of the bound recording session to the
// interceptor. Implemented by the orchestrator.
type Session interface {
	// Active returns the cassette bound to the session, or nil when no
	// session is bound.
	Active() *models.Cassette
	// Ignored returns the union of the global and per-session ignore lists.
	Ignored() matcher.IgnoreSet
}
