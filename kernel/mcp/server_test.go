package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openziti/pandapi/kernel/engine"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/openziti/pandapi/kernel/store"
)

func newTestServer() (*PandapiMCPServer, *engine.Engine, *engine.ManualScheduler) {
	sched := engine.NewManualScheduler()
	e := engine.NewEngine(store.NewMemoryStore(), sched,
		engine.WithDelays(engine.Delays{Build: time.Second, Teardown: time.Second, Purge: time.Second}))
	return NewPandapiMCPServer(e, "test"), e, sched
}

func callArgs(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	return result.Content[0].(mcp.TextContent).Text
}

func TestNewPandapiMCPServer(t *testing.T) {
	server, _, _ := newTestServer()

	if server == nil {
		t.Fatal("expected server to be created")
	}
	if server.lifecycle == nil {
		t.Error("expected lifecycle to be set")
	}
}

func TestProvisionServerHandler(t *testing.T) {
	server, e, _ := newTestServer()

	result, err := server.provisionServerHandler(context.Background(), callArgs(map[string]any{
		"name":      "web1",
		"cpus":      float64(2),
		"memory_gb": float64(4),
		"disk_gb":   float64(20),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got %s", resultText(t, result))
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if response["state"] != "BUILDING" {
		t.Errorf("expected BUILDING, got %v", response["state"])
	}
	if len(e.List()) != 1 {
		t.Errorf("expected 1 server, got %d", len(e.List()))
	}
}

func TestProvisionServerHandler_Invalid(t *testing.T) {
	server, e, _ := newTestServer()

	result, err := server.provisionServerHandler(context.Background(), callArgs(map[string]any{
		"name":      "web1",
		"cpus":      float64(0),
		"memory_gb": float64(1),
		"disk_gb":   float64(1),
	}))
	if err != nil {
		t.Fatalf("engine errors must not be protocol errors: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(resultText(t, result), "number of cpus must be 1 or higher") {
		t.Errorf("unexpected message: %s", resultText(t, result))
	}
	if len(e.List()) != 0 {
		t.Error("invalid provision must not store a server")
	}
}

func TestProvisionServerHandler_MissingArgument(t *testing.T) {
	server, _, _ := newTestServer()

	result, err := server.provisionServerHandler(context.Background(), callArgs(map[string]any{"name": "web1"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result")
	}
}

func TestProvisionServerHandler_FractionalSize(t *testing.T) {
	server, e, _ := newTestServer()

	result, err := server.provisionServerHandler(context.Background(), callArgs(map[string]any{
		"name":      "web1",
		"cpus":      1.7,
		"memory_gb": float64(1),
		"disk_gb":   float64(1),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "cpus must be a whole number") {
		t.Errorf("unexpected message '%s'", text)
	}
	if len(e.List()) != 0 {
		t.Errorf("expected nothing provisioned, got %v", e.List())
	}
}

func TestGetServerHandler(t *testing.T) {
	server, e, _ := newTestServer()
	created, _ := e.Provision(model.Server{Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1})

	result, err := server.getServerHandler(context.Background(), callArgs(map[string]any{"server_id": created.Id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response map[string]interface{}
	json.Unmarshal([]byte(resultText(t, result)), &response)
	if response["id"] != created.Id {
		t.Errorf("expected id %s, got %v", created.Id, response["id"])
	}
	if response["name"] != "web1" {
		t.Errorf("expected name web1, got %v", response["name"])
	}
}

func TestGetServerHandler_NotFound(t *testing.T) {
	server, _, _ := newTestServer()

	result, err := server.getServerHandler(context.Background(), callArgs(map[string]any{"server_id": "missing"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result")
	}
	if !strings.Contains(resultText(t, result), "server not found") {
		t.Errorf("unexpected message: %s", resultText(t, result))
	}
}

func TestDecommissionServerHandler(t *testing.T) {
	server, e, sched := newTestServer()
	created, _ := e.Provision(model.Server{Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1})

	result, _ := server.decommissionServerHandler(context.Background(), callArgs(map[string]any{"server_id": created.Id}))
	if !result.IsError {
		t.Error("decommission of a BUILDING server must fail")
	}

	sched.Advance(time.Second)
	result, err := server.decommissionServerHandler(context.Background(), callArgs(map[string]any{"server_id": created.Id}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got %s", resultText(t, result))
	}

	got, _ := e.Get(created.Id)
	if got.State != model.StateTerminating {
		t.Errorf("expected TERMINATING, got %s", got.State)
	}
}

func TestListServersHandler(t *testing.T) {
	server, e, _ := newTestServer()
	e.Provision(model.Server{Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1})
	e.Provision(model.Server{Name: "web2", Cpus: 1, MemoryGB: 1, DiskGB: 1})

	result, err := server.listServersHandler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response map[string]interface{}
	json.Unmarshal([]byte(resultText(t, result)), &response)
	if int(response["count"].(float64)) != 2 {
		t.Errorf("expected 2 servers, got %v", response["count"])
	}
}

func TestInventoryHandler(t *testing.T) {
	server, e, _ := newTestServer()
	e.Provision(model.Server{Name: "web1", Cpus: 1, MemoryGB: 1, DiskGB: 1})

	contents, err := server.inventoryHandler(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatal("expected TextResourceContents")
	}
	if text.URI != inventoryURI {
		t.Errorf("expected URI %s, got %s", inventoryURI, text.URI)
	}

	var response inventory
	if err := json.Unmarshal([]byte(text.Text), &response); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if response.Count != 1 || response.Servers[0].Name != "web1" {
		t.Errorf("unexpected inventory: %+v", response)
	}
}
