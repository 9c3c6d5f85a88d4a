package model

import "context"

// SimulatedDriver stands in for a real provisioning backend. The time a build
// or teardown takes is modelled by the engine's delays, so both calls finish
// immediately unless the context is already done.
type SimulatedDriver struct{}

func (d *SimulatedDriver) Label() string {
	return "simulated"
}

func (d *SimulatedDriver) Build(ctx context.Context, server Server) error {
	return ctx.Err()
}

func (d *SimulatedDriver) Teardown(ctx context.Context, server Server) error {
	return ctx.Err()
}

func init() {
	RegisterDriver("simulated", func() Driver { return &SimulatedDriver{} })
}
