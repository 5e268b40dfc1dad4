package serverconfig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openag/openag-go/pkg/couch/memcouch"
	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

// pauses records the pauses requested by the applier, and the number of config writes seen at the time
type pauses struct {
	server *memcouch.Server
	calls  []int
	delays []time.Duration
}

func (p *pauses) sleep(_ context.Context, d time.Duration) error {
	p.calls = append(p.calls, p.server.ConfigWrites())
	p.delays = append(p.delays, d)
	return nil
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) ConfigValue(ctx context.Context, section, key string) (string, error) {
	args := m.Called(ctx, section, key)
	return args.String(0), args.Error(1)
}

func (m *mockAdmin) SetConfigValue(ctx context.Context, section, key, value string) error {
	args := m.Called(ctx, section, key, value)
	return args.Error(0)
}

func TestGenerate(t *testing.T) {
	params := Generate("")
	assert.Equal(t, []model.ConfigParameter{
		{Section: "cors", Key: "credentials", Value: "true"},
		{Section: "cors", Key: "headers", Value: "accept, authorization, content-type, origin, referer, x-csrf-token"},
		{Section: "cors", Key: "methods", Value: "GET, PUT, POST, HEAD, DELETE"},
		{Section: "cors", Key: "origins", Value: "*"},
		{Section: "httpd", Key: "bind_address", Value: "0.0.0.0"},
		{Section: "httpd", Key: "enable_cors", Value: "true"},
	}, params)

	params = Generate("http://localhost:5000")
	require.Len(t, params, 7)
	assert.Equal(t, model.ConfigParameter{
		Section: "httpd_global_handlers",
		Key:     "_openag",
		Value:   `{couch_httpd_proxy, handle_proxy_req, <<"http://localhost:5000">>}`,
	}, params[6])
}

func TestApplyWritesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	server := memcouch.New()
	require.NoError(t, server.SetConfigValue(ctx, "httpd", "bind_address", "0.0.0.0"))
	require.NoError(t, server.SetConfigValue(ctx, "httpd", "enable_cors", "false"))
	initial := server.ConfigWrites()

	p := &pauses{server: server}
	m := metrics.New()
	applier := NewApplier(server, Sleep(p.sleep), Pause(10*time.Millisecond), Metrics(m))

	params := []model.ConfigParameter{
		{Section: "httpd", Key: "bind_address", Value: "0.0.0.0"},
		{Section: "httpd", Key: "enable_cors", Value: "true"},
		{Section: "cors", Key: "origins", Value: "*"},
	}
	res, err := applier.Apply(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, params[:1], res.Unchanged)
	assert.Equal(t, params[1:], res.Written)
	assert.Empty(t, res.Failed)

	assert.Equal(t, initial+2, server.ConfigWrites())
	assert.Equal(t, []int{initial + 1, initial + 2}, p.calls, "each write is followed by a pause")
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, p.delays)

	v, err := server.ConfigValue(ctx, "httpd", "enable_cors")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	// everything is in place now
	p.calls = nil
	res, err = applier.Apply(ctx, params)
	require.NoError(t, err)
	assert.Len(t, res.Unchanged, 3)
	assert.Equal(t, initial+2, server.ConfigWrites())
	assert.Empty(t, p.calls, "no write, no pause")
}

func TestApplyIsBestEffort(t *testing.T) {
	ctx := context.Background()
	server := memcouch.New()
	boom := errors.New("boom")
	server.FailConfig("cors", "origins", status.ErrForbidden.Wrap(boom))

	p := &pauses{server: server}
	applier := NewApplier(server, Sleep(p.sleep))

	params := Generate("")
	res, err := applier.Apply(ctx, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrForbidden)
	assert.Contains(t, err.Error(), "cors/origins")

	assert.Equal(t, []model.ConfigParameter{{Section: "cors", Key: "origins", Value: "*"}}, res.Failed)
	assert.Len(t, res.Written, len(params)-1, "remaining parameters are still applied")
	assert.Len(t, p.calls, len(params), "failed writes are followed by a pause too")
	assert.Equal(t, []time.Duration{DefaultPause}, p.delays[:1])
}

func TestApplyReadError(t *testing.T) {
	ctx := context.Background()
	admin := new(mockAdmin)
	admin.On("ConfigValue", mock.Anything, "httpd", "bind_address").Return("", status.ErrUnauthorized).Once()
	admin.On("ConfigValue", mock.Anything, "httpd", "enable_cors").Return("", status.ErrNotFound).Once()
	admin.On("SetConfigValue", mock.Anything, "httpd", "enable_cors", "true").Return(nil).Once()

	var slept int
	applier := NewApplier(admin, Sleep(func(context.Context, time.Duration) error {
		slept++
		return nil
	}))
	res, err := applier.Apply(ctx, []model.ConfigParameter{
		{Section: "httpd", Key: "bind_address", Value: "0.0.0.0"},
		{Section: "httpd", Key: "enable_cors", Value: "true"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrUnauthorized)
	assert.Len(t, res.Failed, 1)
	assert.Len(t, res.Written, 1)
	assert.Equal(t, 1, slept)
	admin.AssertExpectations(t)
}

func TestApplyCancelled(t *testing.T) {
	server := memcouch.New()
	ctx, cancel := context.WithCancel(context.Background())

	applier := NewApplier(server, Pause(time.Hour))
	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = applier.Apply(ctx, Generate(""))
	}()

	require.Eventually(t, func() bool { return server.ConfigWrites() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pause was not interrupted by cancellation")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, server.ConfigWrites())
}
