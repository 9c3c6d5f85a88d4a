package engine

import (
	"context"
	"sort"
	"time"

	"github.com/openziti/pandapi/kernel/model"
	"github.com/openziti/pandapi/kernel/store"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxDriverAttempts bounds how often a failing driver step is retried
// before the server is left where it is.
const maxDriverAttempts = 3

// Delays is how long each background transition waits before it runs.
type Delays struct {
	Build    time.Duration
	Teardown time.Duration
	Purge    time.Duration
}

func DelaysFromConfig(cfg model.DelayConfig) Delays {
	return Delays{Build: cfg.Build, Teardown: cfg.Teardown, Purge: cfg.Purge}
}

// Observer is notified after a state change has been stored. OnPurge
// receives the state the server was in when it was removed.
type Observer interface {
	OnTransition(id string, from, to model.ServerState)
	OnPurge(id string, last model.ServerState)
}

type Option func(e *Engine)

func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

func WithDriver(d model.Driver) Option {
	return func(e *Engine) { e.driver = d }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// Engine enforces the server state machine and drives its timed transitions.
//
//	[none] --Provision--> BUILDING --build--> RUNNING
//	RUNNING --Decommission--> TERMINATING --teardown--> DESTROYED --purge--> [removed]
//
// Each id has a single writer at a time: one build task per Provision, one
// teardown task per Decommission, and Decommission only acts on RUNNING.
type Engine struct {
	store     store.ResourceStore
	scheduler Scheduler
	driver    model.Driver
	delays    Delays
	observer  Observer
	log       *logrus.Entry

	decommissioning cmap.ConcurrentMap[string, struct{}]
}

func NewEngine(s store.ResourceStore, scheduler Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		scheduler:       scheduler,
		driver:          &model.SimulatedDriver{},
		log:             logrus.WithField("component", "lifecycle"),
		decommissioning: cmap.New[struct{}](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provision validates spec, stores it as BUILDING and schedules its build.
// It returns without waiting for the build.
func (e *Engine) Provision(spec model.Server) (model.Server, error) {
	if err := spec.ValidateForCreate(); err != nil {
		return model.Server{}, err
	}

	spec.State = model.StateBuilding
	server, err := e.store.Create(spec)
	if err != nil {
		return model.Server{}, errors.Wrap(err, "unable to store server")
	}
	e.notifyTransition(server.Id, model.StateUnset, model.StateBuilding)
	e.log.Infof("creating server: %v", server)

	if err := e.scheduler.Schedule(buildKey(server.Id), e.delays.Build, e.buildTask(server.Id, 1)); err != nil {
		if e.store.Delete(server.Id) {
			e.notifyPurge(server.Id, model.StateBuilding)
		}
		return model.Server{}, model.NewInternalError(errors.Wrapf(err, "unable to schedule build of [%s]", server.Id))
	}

	return server, nil
}

// Decommission moves a RUNNING server to TERMINATING and schedules teardown.
func (e *Engine) Decommission(id string) error {
	if !e.decommissioning.SetIfAbsent(id, struct{}{}) {
		return model.NewBadRequestError("decommission already in progress for server: %s", id)
	}
	defer e.decommissioning.Remove(id)

	server, found := e.store.Get(id)
	if !found {
		return model.NewNotFoundError(id)
	}
	if server.State != model.StateRunning {
		return model.NewBadRequestError("only servers in the running state can be decommissioned (server %s is %s)", id, server.State)
	}

	e.log.Debugf("setting %v to %s", server, model.StateTerminating)
	server.State = model.StateTerminating
	if !e.store.Replace(id, server) {
		return model.NewNotFoundError(id)
	}
	e.notifyTransition(id, model.StateRunning, model.StateTerminating)
	e.log.Infof("destroying server: %v", server)

	if err := e.scheduler.Schedule(teardownKey(id), e.delays.Teardown, e.teardownTask(id, 1)); err != nil {
		return model.NewInternalError(errors.Wrapf(err, "unable to schedule teardown of [%s]", id))
	}
	return nil
}

func (e *Engine) Get(id string) (model.Server, error) {
	server, found := e.store.Get(id)
	if !found {
		return model.Server{}, model.NewNotFoundError(id)
	}
	return server, nil
}

// List returns every server, sorted by id.
func (e *Engine) List() []model.Server {
	servers := e.store.ListAll()
	sort.Slice(servers, func(i, j int) bool { return servers[i].Id < servers[j].Id })
	return servers
}

// Shutdown abandons outstanding transitions.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.scheduler.Stop(ctx)
}

func (e *Engine) buildTask(id string, attempt int) Task {
	return func(ctx context.Context) {
		server, ok, err := e.advance(ctx, id, model.StateBuilding, model.StateRunning, e.driver.Build)
		if err != nil {
			e.retry(buildKey(id), e.delays.Build, attempt, e.buildTask(id, attempt+1))
			return
		}
		if ok {
			e.log.Infof("server running: %v", server)
		}
	}
}

func (e *Engine) teardownTask(id string, attempt int) Task {
	return func(ctx context.Context) {
		server, ok, err := e.advance(ctx, id, model.StateTerminating, model.StateDestroyed, e.driver.Teardown)
		if err != nil {
			e.retry(teardownKey(id), e.delays.Teardown, attempt, e.teardownTask(id, attempt+1))
			return
		}
		if !ok {
			return
		}
		if err := e.scheduler.Schedule(purgeKey(id), e.delays.Purge, e.purgeTask(id)); err != nil {
			e.log.WithError(err).Warnf("unable to schedule purge of %v", server)
		}
	}
}

func (e *Engine) purgeTask(id string) Task {
	return func(context.Context) {
		if !e.store.Delete(id) {
			e.log.Debugf("server [%s] already purged", id)
			return
		}
		e.notifyPurge(id, model.StateDestroyed)
		e.log.Infof("purged server [%s] from the system", id)
	}
}

// retry reschedules a failed driver step under the key it ran as. Tasks are
// unscheduled before they run, so the key is free again.
func (e *Engine) retry(key string, delay time.Duration, attempt int, next Task) {
	if attempt >= maxDriverAttempts {
		e.log.Errorf("giving up on [%s] after %d attempts", key, attempt)
		return
	}
	if err := e.scheduler.Schedule(key, delay, next); err != nil {
		e.log.WithError(err).Warnf("unable to reschedule [%s]", key)
		return
	}
	e.log.Infof("retrying [%s] in %v (attempt %d of %d)", key, delay, attempt+1, maxDriverAttempts)
}

// advance re-reads the server, runs the driver step and writes the next
// state back. A server that has disappeared is not an error; a failed driver
// step is returned so the caller can retry it.
func (e *Engine) advance(ctx context.Context, id string, from, to model.ServerState, step func(context.Context, model.Server) error) (model.Server, bool, error) {
	server, found := e.store.Get(id)
	if !found {
		e.log.Debugf("server [%s] gone before %s, nothing to update", id, to)
		return model.Server{}, false, nil
	}
	if server.State != from || !from.CanTransitionTo(to) {
		e.log.Warnf("server [%s] is %s, expected %s; not moving it to %s", id, server.State, from, to)
		return model.Server{}, false, nil
	}

	if err := step(ctx, server); err != nil {
		e.log.WithError(err).Errorf("%s driver failed for %v", e.driver.Label(), server)
		return model.Server{}, false, err
	}

	e.log.Debugf("setting %v to %s", server, to)
	server.State = to
	if !e.store.Replace(id, server) {
		e.log.Debugf("server [%s] gone before %s, nothing to update", id, to)
		return model.Server{}, false, nil
	}
	e.notifyTransition(id, from, to)
	return server, true, nil
}

func (e *Engine) notifyTransition(id string, from, to model.ServerState) {
	if e.observer != nil {
		e.observer.OnTransition(id, from, to)
	}
}

func (e *Engine) notifyPurge(id string, last model.ServerState) {
	if e.observer != nil {
		e.observer.OnPurge(id, last)
	}
}

func buildKey(id string) string    { return "build/" + id }
func teardownKey(id string) string { return "teardown/" + id }
func purgeKey(id string) string    { return "purge/" + id }
