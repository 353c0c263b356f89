package replay

import (
	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
)

// Session exposes the state of the bound playing session to the interceptor.
// Implemented by the orchestrator. The cassette is read-only during replay.
type Session interface {
	Active() *models.Cassette
	Ignored() matcher.IgnoreSet
}
