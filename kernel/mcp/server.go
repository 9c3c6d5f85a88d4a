package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/openziti/pandapi/kernel/api"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
)

const inventoryURI = "pandapi://servers"

type PandapiMCPServer struct {
	server    *server.MCPServer
	lifecycle api.Lifecycle
}

func NewPandapiMCPServer(lifecycle api.Lifecycle, version string) *PandapiMCPServer {
	srv := server.NewMCPServer(
		"Pandapi Server Inventory",
		version,
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	ps := &PandapiMCPServer{
		server:    srv,
		lifecycle: lifecycle,
	}

	ps.registerTools()
	ps.registerResources()

	return ps
}

func (ps *PandapiMCPServer) ServeStdio() error {
	return server.ServeStdio(ps.server)
}

func (ps *PandapiMCPServer) registerTools() {
	ps.server.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List every server and its lifecycle state"),
	), ps.listServersHandler)

	ps.server.AddTool(mcp.NewTool("get_server",
		mcp.WithDescription("Show a single server"),
		mcp.WithString("server_id",
			mcp.Description("Identifier of the server"),
			mcp.Required(),
		),
	), ps.getServerHandler)

	ps.server.AddTool(mcp.NewTool("provision_server",
		mcp.WithDescription("Provision a new server; it starts in the BUILDING state"),
		mcp.WithString("name",
			mcp.Description("Name of the server"),
			mcp.Required(),
		),
		mcp.WithNumber("cpus",
			mcp.Description("Number of cpus, 1 or higher"),
			mcp.Required(),
		),
		mcp.WithNumber("memory_gb",
			mcp.Description("Memory in gigabytes, 1 or higher"),
			mcp.Required(),
		),
		mcp.WithNumber("disk_gb",
			mcp.Description("Disk space in gigabytes, 1 or higher"),
			mcp.Required(),
		),
	), ps.provisionServerHandler)

	ps.server.AddTool(mcp.NewTool("decommission_server",
		mcp.WithDescription("Decommission a RUNNING server"),
		mcp.WithString("server_id",
			mcp.Description("Identifier of the server"),
			mcp.Required(),
		),
	), ps.decommissionServerHandler)
}

func (ps *PandapiMCPServer) registerResources() {
	resource := mcp.NewResource(inventoryURI, "Server Inventory",
		mcp.WithResourceDescription("Current state of all servers"),
		mcp.WithMIMEType("application/json"),
	)
	ps.server.AddResource(resource, ps.inventoryHandler)
}

func (ps *PandapiMCPServer) listServersHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(ps.inventory())
}

func (ps *PandapiMCPServer) getServerHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("server_id")
	if err != nil {
		return mcp.NewToolResultError("server_id argument is required"), nil
	}
	s, err := ps.lifecycle.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.FromModel(s))
}

func (ps *PandapiMCPServer) provisionServerHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	spec := model.Server{Name: name}
	for arg, field := range map[string]*int{"cpus": &spec.Cpus, "memory_gb": &spec.MemoryGB, "disk_gb": &spec.DiskGB} {
		v, err := request.RequireFloat(arg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s argument is required", arg)), nil
		}
		// JSON numbers arrive as float64; truncating would provision a different size
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return mcp.NewToolResultError(fmt.Sprintf("%s must be a whole number, got %v", arg, v)), nil
		}
		*field = int(v)
	}

	s, err := ps.lifecycle.Provision(spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(api.FromModel(s))
}

func (ps *PandapiMCPServer) decommissionServerHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("server_id")
	if err != nil {
		return mcp.NewToolResultError("server_id argument is required"), nil
	}
	if err := ps.lifecycle.Decommission(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Server '%s' is terminating.", id)), nil
}

func (ps *PandapiMCPServer) inventoryHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(ps.inventory())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode inventory")
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      inventoryURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

type inventory struct {
	Count   int             `json:"count"`
	Servers []api.ServerDoc `json:"servers"`
}

func (ps *PandapiMCPServer) inventory() inventory {
	servers := ps.lifecycle.List()
	inv := inventory{Count: len(servers), Servers: make([]api.ServerDoc, 0, len(servers))}
	for _, s := range servers {
		inv.Servers = append(inv.Servers, api.FromModel(s))
	}
	return inv
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode result")
	}
	return mcp.NewToolResultText(string(data)), nil
}
