package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
)

// maxIdAttempts bounds identifier generation. A random UUID colliding even
// once is not expected to happen in practice.
const maxIdAttempts = 16

// IdGenerator produces candidate server identifiers.
type IdGenerator func() (string, error)

// RandomUUID generates version 4 UUID identifiers.
func RandomUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MemoryStore is an in-memory implementation of ResourceStore.
type MemoryStore struct {
	mu      sync.RWMutex
	servers map[string]model.Server
	nextId  IdGenerator
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithIdGenerator(RandomUUID)
}

func NewMemoryStoreWithIdGenerator(gen IdGenerator) *MemoryStore {
	return &MemoryStore{
		servers: make(map[string]model.Server, 1024),
		nextId:  gen,
	}
}

// ListAll returns all stored servers.
func (s *MemoryStore) ListAll() []model.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Server, 0, len(s.servers))
	for _, v := range s.servers {
		result = append(result, v)
	}
	return result
}

func (s *MemoryStore) Get(id string) (model.Server, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	server, ok := s.servers[id]
	return server, ok
}

// Create stores the server under a new identifier, retrying on collision.
func (s *MemoryStore) Create(server model.Server) (model.Server, error) {
	for attempt := 0; attempt < maxIdAttempts; attempt++ {
		id, err := s.nextId()
		if err != nil {
			return model.Server{}, model.NewInternalError(errors.Wrap(err, "unable to generate server id"))
		}
		if id == "" {
			return model.Server{}, model.NewInternalError(errors.New("generated an empty server id"))
		}

		server.Id = id
		if s.putIfAbsent(server) {
			return server, nil
		}
	}
	return model.Server{}, model.NewInternalError(errors.Errorf("no unused server id after %d attempts", maxIdAttempts))
}

func (s *MemoryStore) putIfAbsent(server model.Server) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.servers[server.Id]; found {
		return false
	}
	s.servers[server.Id] = server
	return true
}

func (s *MemoryStore) Replace(id string, server model.Server) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.servers[id]; !found {
		return false
	}
	server.Id = id
	s.servers[id] = server
	return true
}

// Delete removes a server from the store.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.servers[id]; !found {
		return false
	}
	delete(s.servers, id)
	return true
}
