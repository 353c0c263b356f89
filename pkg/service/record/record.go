// Package record implements the interception behavior of recording mode:
// every call is forwarded to the live transport and the request/response
// pair is appended to the active cassette.
package record

import (
	"context"

	"go.uber.org/zap"

	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/stub"
	"github.com/stubtape/stubtape/utils"
)

// Interceptor is installed on a stub for the duration of a recording
// session. It is transparent to calling code: the real result is always
// returned unchanged, whether or not an entry was appended.
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
	cassette := i.session.Active()
	if cassette == nil {
		return models.ErrNoActiveCassette
	}

	// Forward first. A failed live call is surfaced as-is and never recorded.
	if err := i.stub.Base().Invoke(ctx, method, args, reply); err != nil {
		i.logger.Debug("live call failed, nothing recorded",
			zap.String("method", method), zap.Error(err))
		return err
	}

	codec := i.stub.Codec()
	normArgs, err := codec.NormalizeArgs(args)
	if err != nil {
		utils.LogError(i.logger, err, "call succeeded but its arguments could not be normalized, skipping recording",
			zap.String("method", method))
		return nil
	}
	req := models.Request{Method: method, Args: normArgs}

	resp, err := i.normalizeResult(ctx, method, reply)
	if err != nil {
		utils.LogError(i.logger, err, "call succeeded but its result could not be normalized, skipping recording",
			zap.String("method", method))
		return nil
	}

	match := matcher.MatchFunc(i.session.Ignored())
	if !cassette.Append(req, *resp, match) {
		i.logger.Debug("an equal request is already recorded, not appending a duplicate entry",
			zap.String("method", method), zap.String("cassette", cassette.Name))
		return nil
	}
	i.logger.Debug("recorded call",
		zap.String("method", method),
		zap.String("cassette", cassette.Name),
		zap.Int("entries", cassette.Len()))
	return nil
}

// normalizeResult turns the populated reply into a Response. Deferred calls
// are resolved eagerly so the recorded value is the operation's final result;
// resolution also pins the value on the handle the caller holds, so its later
// completion step returns the recorded value instead of re-executing.
func (i *Interceptor) normalizeResult(ctx context.Context, method string, reply interface{}) (*models.Response, error) {
	codec := i.stub.Codec()

	if deferred, ok := reply.(*stub.Deferred); ok {
		resolved, err := deferred.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		norm, err := codec.NormalizeResult(resolved)
		if err != nil {
			return nil, err
		}
		i.logger.Debug("eagerly resolved deferred operation for recording", zap.String("method", method))
		return &models.Response{Result: norm, Deferred: true}, nil
	}

	norm, err := codec.NormalizeResult(reply)
	if err != nil {
		return nil, err
	}
	return &models.Response{Result: norm}, nil
}
