package store

import "github.com/openziti/pandapi/kernel/model"

// ResourceStore keeps servers addressed by identifier. Every server passed in
// or handed out is a copy; callers never share a record with the store.
//
// Absence is an expected outcome and is reported through the boolean results,
// never as an error.
type ResourceStore interface {
	// ListAll returns a copy of every stored server, in no particular order.
	ListAll() []model.Server

	// Get returns a copy of the server stored under id.
	Get(id string) (model.Server, bool)

	// Create stores a copy of server under a freshly generated identifier and
	// returns a copy carrying that identifier. Create is the only writer of Id.
	Create(server model.Server) (model.Server, error)

	// Replace overwrites the server stored under id. It returns false, and
	// changes nothing, when no server is stored under id.
	Replace(id string, server model.Server) bool

	// Delete removes the server stored under id, returning false if absent.
	Delete(id string) bool
}
