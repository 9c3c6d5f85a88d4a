// Package api exposes the lifecycle engine over HTTP under /v1/servers and
// provides a client for it.
package api

import (
	"github.com/openziti/pandapi/kernel/model"
)

const BasePath = "/v1/servers"

// ServerDoc is the wire form of a server.
type ServerDoc struct {
	Id        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Cpus      int    `json:"cpus"`
	Ram       int    `json:"ram"`
	DiskSpace int    `json:"diskSpace"`
	State     string `json:"state,omitempty"`
}

type ServerEnvelope struct {
	Server *ServerDoc `json:"server"`
}

type ServerList struct {
	Servers []ServerDoc `json:"servers"`
}

type ErrorDoc struct {
	Error string `json:"error"`
}

func FromModel(s model.Server) ServerDoc {
	doc := ServerDoc{
		Id:        s.Id,
		Name:      s.Name,
		Cpus:      s.Cpus,
		Ram:       s.MemoryGB,
		DiskSpace: s.DiskGB,
	}
	if s.State != model.StateUnset {
		doc.State = s.State.String()
	}
	return doc
}

// CreateSpec converts a create request. Any state the client sent, "NONE"
// included, is reported together with the other create violations.
func (d ServerDoc) CreateSpec() (model.Server, error) {
	spec := model.Server{
		Id:       d.Id,
		Name:     d.Name,
		Cpus:     d.Cpus,
		MemoryGB: d.Ram,
		DiskGB:   d.DiskSpace,
	}
	if err := spec.ValidateCreateRequest(d.State != ""); err != nil {
		return model.Server{}, err
	}
	return spec, nil
}

// ToModel converts a response document. An unrecognised state is an error.
func (d ServerDoc) ToModel() (model.Server, error) {
	server := model.Server{
		Id:       d.Id,
		Name:     d.Name,
		Cpus:     d.Cpus,
		MemoryGB: d.Ram,
		DiskGB:   d.DiskSpace,
	}
	if d.State != "" {
		state, err := model.ParseServerState(d.State)
		if err != nil {
			return model.Server{}, model.NewBadRequestError("%s", err.Error())
		}
		server.State = state
	}
	return server, nil
}
