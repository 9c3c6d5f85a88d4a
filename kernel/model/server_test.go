package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestServerState_String(t *testing.T) {
	tests := []struct {
		state ServerState
		want  string
	}{
		{StateUnset, "NONE"},
		{StateBuilding, "BUILDING"},
		{StateRunning, "RUNNING"},
		{StateTerminating, "TERMINATING"},
		{StateDestroyed, "DESTROYED"},
		{ServerState(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ServerState(%d).String() = %s, want %s", int(tt.state), got, tt.want)
		}
	}
}

func TestServerState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ServerState
		want     bool
	}{
		{StateUnset, StateBuilding, true},
		{StateBuilding, StateRunning, true},
		{StateRunning, StateTerminating, true},
		{StateTerminating, StateDestroyed, true},
		{StateBuilding, StateTerminating, false},
		{StateRunning, StateBuilding, false},
		{StateDestroyed, StateBuilding, false},
		{StateDestroyed, ServerState(5), false},
		{StateRunning, StateRunning, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseServerState(t *testing.T) {
	state, err := ParseServerState("running")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateRunning {
		t.Errorf("expected RUNNING, got %s", state)
	}

	if _, err := ParseServerState("exploded"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestServer_JSONStateAsText(t *testing.T) {
	data, err := json.Marshal(Server{Id: "a", Name: "web1", State: StateTerminating})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"state":"TERMINATING"`) {
		t.Errorf("expected textual state in %s", data)
	}

	var decoded Server
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.State != StateTerminating {
		t.Errorf("expected TERMINATING, got %s", decoded.State)
	}
}

func TestServer_ValidateForCreate(t *testing.T) {
	tests := []struct {
		name     string
		server   Server
		wantErr  bool
		contains []string
	}{
		{
			name:   "valid",
			server: Server{Name: "web1", Cpus: 2, MemoryGB: 4, DiskGB: 20},
		},
		{
			name:     "empty name and zero cpus",
			server:   Server{Name: "", Cpus: 0, MemoryGB: 1, DiskGB: 1},
			wantErr:  true,
			contains: []string{"name must be specified", "number of cpus must be 1 or higher"},
		},
		{
			name:     "client supplied id and state",
			server:   Server{Id: "abc", Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1, State: StateRunning},
			wantErr:  true,
			contains: []string{"ids are generated by the server", "server state must not be specified"},
		},
		{
			name:     "everything wrong",
			server:   Server{Id: "abc", Name: "  ", Cpus: -1, MemoryGB: 0, DiskGB: 0, State: StateBuilding},
			wantErr:  true,
			contains: []string{"ids", "name", "cpus", "ram", "disk space", "state"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.server.ValidateForCreate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateForCreate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !IsBadRequest(err) {
				t.Errorf("expected bad request, got %T", err)
			}
			for _, fragment := range tt.contains {
				if !strings.Contains(err.Error(), fragment) {
					t.Errorf("expected '%s' in '%s'", fragment, err.Error())
				}
			}
		})
	}
}

func TestServer_ValidateCreateRequestStateSpecified(t *testing.T) {
	spec := Server{Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1}
	if err := spec.ValidateCreateRequest(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a client sending "NONE" decodes to StateUnset but still specified a state
	err := spec.ValidateCreateRequest(true)
	if err == nil || !IsBadRequest(err) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if !strings.Contains(err.Error(), "server state must not be specified") {
		t.Errorf("unexpected message '%s'", err.Error())
	}
}
