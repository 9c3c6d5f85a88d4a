package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ServerState is a step in the server lifecycle. States are ordered; a server
// only ever moves one step forward.
type ServerState int

const (
	StateUnset ServerState = iota
	StateBuilding
	StateRunning
	StateTerminating
	StateDestroyed
)

var stateNames = map[ServerState]string{
	StateUnset:       "NONE",
	StateBuilding:    "BUILDING",
	StateRunning:     "RUNNING",
	StateTerminating: "TERMINATING",
	StateDestroyed:   "DESTROYED",
}

func (s ServerState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// CanTransitionTo reports whether next is the single forward step after s.
func (s ServerState) CanTransitionTo(next ServerState) bool {
	return s >= StateUnset && s < StateDestroyed && next == s+1
}

func (s ServerState) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, errors.Errorf("invalid server state [%d]", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ServerState) UnmarshalText(text []byte) error {
	parsed, err := ParseServerState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseServerState accepts the text form of a state, case-insensitively.
func ParseServerState(v string) (ServerState, error) {
	for state, name := range stateNames {
		if strings.EqualFold(name, strings.TrimSpace(v)) {
			return state, nil
		}
	}
	return StateUnset, errors.Errorf("unknown server state '%s'", v)
}

// Server is a provisioned (or provisioning) compute resource. It holds only
// value fields so that every assignment is an independent copy.
type Server struct {
	Id       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Cpus     int         `json:"cpus" yaml:"cpus"`
	MemoryGB int         `json:"memoryGB" yaml:"memoryGB"`
	DiskGB   int         `json:"diskGB" yaml:"diskGB"`
	State    ServerState `json:"state" yaml:"state"`
}

// ValidateForCreate checks a client supplied server before it is provisioned.
// Every violated rule is reported in a single BadRequestError.
func (s Server) ValidateForCreate() error {
	return s.ValidateCreateRequest(s.State != StateUnset)
}

// ValidateCreateRequest is ValidateForCreate for callers that can tell a
// state was supplied even when it decodes to StateUnset.
func (s Server) ValidateCreateRequest(stateSpecified bool) error {
	var violations []string

	if s.Id != "" {
		violations = append(violations, "ids are generated by the server and must not be specified by the client")
	}
	if strings.TrimSpace(s.Name) == "" {
		violations = append(violations, "name must be specified")
	}
	if s.Cpus < 1 {
		violations = append(violations, "number of cpus must be 1 or higher")
	}
	if s.MemoryGB < 1 {
		violations = append(violations, "amount of ram must be 1 (gigabyte) or higher")
	}
	if s.DiskGB < 1 {
		violations = append(violations, "amount of disk space must be 1 (gigabyte) or higher")
	}
	if stateSpecified || s.State != StateUnset {
		violations = append(violations, "server state must not be specified by the client")
	}

	if len(violations) > 0 {
		return NewBadRequestError("%s", strings.Join(violations, ", "))
	}
	return nil
}

func (s Server) String() string {
	return fmt.Sprintf("Server{id=%s, name='%s', cpus=%d, memoryGB=%d, diskGB=%d, state=%s}",
		s.Id, s.Name, s.Cpus, s.MemoryGB, s.DiskGB, s.State)
}
