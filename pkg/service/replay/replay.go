// Package replay implements the interception behavior of playing mode: every
// call is answered from the active cassette and no live call is made.
package replay

import (
	"context"

	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/stub"
)

// Interceptor is installed on a stub for the duration of a playing session.
// A call with no matching recording is a hard failure, never a fallthrough
// to the live transport.
type Interceptor struct {
	logger  *zap.Logger
	session Session
	stub    *stub.Stub
}

func NewInterceptor(logger *zap.Logger, session Session, s *stub.Stub) *Interceptor {
	return &Interceptor{
		logger:  logger,
		session: session,
		stub:    s,
	}
}

func (i *Interceptor) Invoke(ctx context.Context, method string, args interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cassette := i.session.Active()
	if cassette == nil {
		return models.ErrNoActiveCassette
	}

	codec := i.stub.Codec()
	normArgs, err := codec.NormalizeArgs(args)
	if err != nil {
		return err
	}
	req := models.Request{Method: method, Args: normArgs}

	ignored := i.session.Ignored()
	entry := cassette.Lookup(req, matcher.MatchFunc(ignored))
	if entry == nil {
		missErr := &models.NoRecordingFoundError{
			Req:  models.Request{Method: method, Args: matcher.Strip(normArgs, ignored)},
			Diff: i.nearestDiff(cassette, req, ignored),
		}
		i.logger.Error("no recording found for intercepted call",
			zap.String("method", method),
			zap.String("cassette", cassette.Name),
			zap.Any("args", missErr.Req.Args))
		return missErr
	}

	if deferred, ok := reply.(*stub.Deferred); ok {
		var resolved interface{}
		if err := codec.DenormalizeResult(entry.Resp.Result, &resolved); err != nil {
			return err
		}
		deferred.SetResolved(resolved)
		i.logger.Debug("replayed deferred operation from cassette", zap.String("method", method))
		return nil
	}

	if err := codec.DenormalizeResult(entry.Resp.Result, reply); err != nil {
		return err
	}
	i.logger.Debug("replayed call from cassette",
		zap.String("method", method), zap.String("cassette", cassette.Name))
	return nil
}

// nearestDiff renders a structural diff between the unmatched request and
// the first recorded request for the same method, with ignored fields
// stripped from both sides. Empty when no recorded call shares the method.
func (i *Interceptor) nearestDiff(cassette *models.Cassette, req models.Request, ignored matcher.IgnoreSet) string {
	for _, entry := range cassette.Entries() {
		if entry.Req.Method != req.Method {
			continue
		}
		patch, err := jsondiff.Compare(
			matcher.Strip(entry.Req.Args, ignored),
			matcher.Strip(req.Args, ignored),
		)
		if err != nil {
			i.logger.Debug("failed to diff against the nearest recorded request", zap.Error(err))
			return ""
		}
		return patch.String()
	}
	return ""
}
