package record

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/stub"
)

type fakeSession struct {
	cassette *models.Cassette
	ignored  matcher.IgnoreSet
}

func (f *fakeSession) Active() *models.Cassette   { return f.cassette }
func (f *fakeSession) Ignored() matcher.IgnoreSet { return f.ignored }

type catalogTransport struct {
	calls int
}

func (t *catalogTransport) Invoke(_ context.Context, method string, args interface{}, reply interface{}) error {
	t.calls++
	data, err := json.Marshal(map[string]interface{}{"name": "bolt", "price": 2.5})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, reply)
}

func newRecordingStub(session Session, live stub.Transport) *stub.Stub {
	s := stub.New("catalog", live, stub.JSONCodec{})
	s.Intercept(NewInterceptor(zap.NewNop(), session, s))
	return s
}

func TestRecord_ForwardsAndRecords(t *testing.T) {
	session := &fakeSession{cassette: models.NewCassette("catalog-flow"), ignored: matcher.NewIgnoreSet()}
	live := &catalogTransport{}
	s := newRecordingStub(session, live)

	var reply map[string]interface{}
	err := s.Invoke(context.Background(), "Get", map[string]interface{}{"id": 1}, &reply)
	require.NoError(t, err)

	// The caller sees the real result unchanged.
	assert.Equal(t, map[string]interface{}{"name": "bolt", "price": 2.5}, reply)
	assert.Equal(t, 1, live.calls)

	require.Equal(t, 1, session.cassette.Len())
	entry := session.cassette.Entries()[0]
	assert.Equal(t, "Get", entry.Req.Method)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, entry.Req.Args)
	assert.False(t, entry.Resp.Deferred)
}

func TestRecord_DedupKeepsForwarding(t *testing.T) {
	session := &fakeSession{cassette: models.NewCassette("catalog-flow"), ignored: matcher.NewIgnoreSet("request_id")}
	live := &catalogTransport{}
	s := newRecordingStub(session, live)

	// The same logical call differs only in an ignored field.
	for i := 0; i < 3; i++ {
		var reply map[string]interface{}
		err := s.Invoke(context.Background(), "Get", map[string]interface{}{"id": 1, "request_id": i}, &reply)
		require.NoError(t, err)
		assert.Equal(t, "bolt", reply["name"])
	}

	// All live calls happened, exactly one entry was stored.
	assert.Equal(t, 3, live.calls)
	assert.Equal(t, 1, session.cassette.Len())
}

func TestRecord_NoActiveCassette(t *testing.T) {
	session := &fakeSession{cassette: nil, ignored: matcher.NewIgnoreSet()}
	live := &catalogTransport{}
	s := newRecordingStub(session, live)

	var reply map[string]interface{}
	err := s.Invoke(context.Background(), "Get", map[string]interface{}{"id": 1}, &reply)
	require.ErrorIs(t, err, models.ErrNoActiveCassette)
	// Never silently calls through.
	assert.Zero(t, live.calls)
}

func TestRecord_LiveFailureIsNotRecorded(t *testing.T) {
	session := &fakeSession{cassette: models.NewCassette("catalog-flow"), ignored: matcher.NewIgnoreSet()}
	boom := errors.New("upstream unavailable")
	live := stub.TransportFunc(func(ctx context.Context, method string, args, reply interface{}) error {
		return boom
	})
	s := newRecordingStub(session, live)

	var reply map[string]interface{}
	err := s.Invoke(context.Background(), "Get", map[string]interface{}{"id": 1}, &reply)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, session.cassette.Len())
}

func TestRecord_DeferredResolvedEagerly(t *testing.T) {
	session := &fakeSession{cassette: models.NewCassette("jobs"), ignored: matcher.NewIgnoreSet()}
	var resolutions int
	live := stub.TransportFunc(func(ctx context.Context, method string, args, reply interface{}) error {
		d, ok := reply.(*stub.Deferred)
		if !ok {
			return errors.New("expected a deferred reply")
		}
		d.SetPending(stub.HandleFunc(func(ctx context.Context) (interface{}, error) {
			resolutions++
			return map[string]interface{}{"status": "done"}, nil
		}))
		return nil
	})
	s := newRecordingStub(session, live)

	handle := &stub.Deferred{}
	err := s.Invoke(context.Background(), "StartJob", map[string]interface{}{"job": "build"}, handle)
	require.NoError(t, err)

	// Recording resolved the operation eagerly and persisted the final value.
	require.Equal(t, 1, session.cassette.Len())
	entry := session.cassette.Entries()[0]
	assert.True(t, entry.Resp.Deferred)
	assert.Equal(t, map[string]interface{}{"status": "done"}, entry.Resp.Result)
	assert.Equal(t, 1, resolutions)

	// The caller's completion step returns the value without re-executing.
	v, err := handle.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"status": "done"}, v)
	assert.Equal(t, 1, resolutions)
}
