package lifecycle

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type named struct {
	name      string
	component Component
}

// Runtime starts components in registration order and stops them in
// reverse. The first component registered is the last one stopped.
type Runtime struct {
	components []named
	started    []named
	logger     *log.Entry
}

func NewRuntime() *Runtime {
	return &Runtime{logger: log.WithField("object", "Runtime")}
}

func (r *Runtime) Register(name string, component Component) *Runtime {
	if component == nil {
		r.logger.Warnf("nil component: %s", name)
		return r
	}
	r.components = append(r.components, named{name: name, component: component})
	return r
}

// Start stops whatever was already started when a component fails.
func (r *Runtime) Start(ctx context.Context) error {
	for _, c := range r.components {
		if err := c.component.Start(ctx); err != nil {
			stopErr := stopComponents(ctx, r.logger, r.started)
			r.started = nil
			return errors.Join(fmt.Errorf("start %s: %w", c.name, err), stopErr)
		}
		r.logger.WithField("component", c.name).Debug("started")
		r.started = append(r.started, c)
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	err := stopComponents(ctx, r.logger, r.started)
	r.started = nil
	return err
}

func stopComponents(ctx context.Context, logger *log.Entry, components []named) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.component.Stop(ctx); err != nil {
			logger.WithError(err).WithField("component", c.name).Warn("stop failed")
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		logger.WithField("component", c.name).Debug("stopped")
	}
	return stopErr
}
