// Package serverconfig applies configuration parameters to a database server.
//
// Parameters are only written when the server holds a different value, and
// every write is followed by a pause: the server restarts some of its
// listeners on configuration changes and drops requests in the meantime.
package serverconfig

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/metrics"
	"github.com/openag/openag-go/pkg/model"
)

// DefaultPause after a configuration write
const DefaultPause = time.Second

// Generate the configuration needed by the platform.
//
// When apiURL is set, the server proxies requests under /_openag to the API server.
// Parameters are sorted by section, then key.
func Generate(apiURL string) []model.ConfigParameter {
	params := []model.ConfigParameter{
		{Section: "httpd", Key: "bind_address", Value: "0.0.0.0"},
		{Section: "httpd", Key: "enable_cors", Value: "true"},
		{Section: "cors", Key: "origins", Value: "*"},
		{Section: "cors", Key: "credentials", Value: "true"},
		{Section: "cors", Key: "methods", Value: "GET, PUT, POST, HEAD, DELETE"},
		{Section: "cors", Key: "headers", Value: "accept, authorization, content-type, origin, referer, x-csrf-token"},
	}
	if apiURL != "" {
		params = append(params, model.ConfigParameter{
			Section: "httpd_global_handlers",
			Key:     "_openag",
			Value:   fmt.Sprintf(`{couch_httpd_proxy, handle_proxy_req, <<"%s">>}`, apiURL),
		})
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].Section != params[j].Section {
			return params[i].Section < params[j].Section
		}
		return params[i].Key < params[j].Key
	})
	return params
}

// Option is a functor to pass optional parameters to the applier
type Option func(*Applier)

// Logger specifies a logger for the applier
func Logger(logger *zap.Logger) Option {
	return func(a *Applier) {
		if logger != nil {
			a.l = logger
		}
	}
}

// Metrics collects counters about configuration writes
func Metrics(m *metrics.Metrics) Option {
	return func(a *Applier) {
		a.m = m
	}
}

// Pause sets the delay observed after each write. Defaults to one second.
func Pause(d time.Duration) Option {
	return func(a *Applier) {
		a.pause = d
	}
}

// Sleep replaces the function used to pause, e.g. to observe pauses in tests.
// It returns early with an error when the context is done.
func Sleep(fn func(context.Context, time.Duration) error) Option {
	return func(a *Applier) {
		if fn != nil {
			a.sleep = fn
		}
	}
}

// Applier writes configuration parameters to a server
type Applier struct {
	admin couch.Admin
	pause time.Duration
	sleep func(context.Context, time.Duration) error
	l     *zap.Logger
	m     *metrics.Metrics
}

// NewApplier for the server configuration exposed by admin
func NewApplier(admin couch.Admin, opts ...Option) *Applier {
	a := &Applier{
		admin: admin,
		pause: DefaultPause,
		sleep: sleepContext,
		l:     zap.NewNop(),
	}
	for _, apply := range opts {
		apply(a)
	}
	return a
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result of an Apply
type Result struct {
	Written   []model.ConfigParameter
	Unchanged []model.ConfigParameter
	Failed    []model.ConfigParameter
}

// Apply the parameters, in order.
//
// Application is best-effort: a parameter that cannot be read or written is
// reported and the next parameters are still applied. The returned error
// combines every failure. Cancelling the context stops the application.
func (a *Applier) Apply(ctx context.Context, params []model.ConfigParameter) (Result, error) {
	var (
		res  Result
		errs error
	)
	for _, param := range params {
		if err := ctx.Err(); err != nil {
			return res, multierr.Append(errs, err)
		}

		current, err := a.admin.ConfigValue(ctx, param.Section, param.Key)
		switch {
		case errors.Is(err, status.ErrNotFound):
			current = ""
		case err != nil:
			a.l.Error("could not read configuration", zap.Stringer("parameter", param), zap.Error(err))
			res.Failed = append(res.Failed, param)
			errs = multierr.Append(errs, fmt.Errorf("read %v: %w", param, err))
			continue
		case current == param.Value:
			res.Unchanged = append(res.Unchanged, param)
			continue
		}

		a.l.Info("setting configuration", zap.Stringer("parameter", param), zap.String("value", param.Value))
		err = a.admin.SetConfigValue(ctx, param.Section, param.Key, param.Value)
		a.m.ConfigWrite(param.Section, err)
		if err != nil {
			a.l.Error("could not write configuration", zap.Stringer("parameter", param), zap.Error(err))
			res.Failed = append(res.Failed, param)
			errs = multierr.Append(errs, fmt.Errorf("write %v: %w", param, err))
		} else {
			res.Written = append(res.Written, param)
		}

		if err := a.sleep(ctx, a.pause); err != nil {
			return res, multierr.Append(errs, err)
		}
	}
	return res, errs
}
