/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"context"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/pandapi/kernel/mcp"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server for AI-driven server management",
		Long: `Start an MCP (Model Context Protocol) server on stdio that runs its own
lifecycle engine and exposes it to AI assistants.

The server provides tools for:
  - list_servers: List every server and its state
  - get_server: Show a single server
  - provision_server: Provision a new server
  - decommission_server: Decommission a running server

And resources:
  - pandapi://servers: Current state of all servers`,
		RunE: mcpCmd.run,
	}

	return cmd
}

type MCPServerCommand struct{}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = e.Shutdown(context.Background()) }()

	pfxlog.Logger().Info("starting MCP server on stdio...")
	return mcp.NewPandapiMCPServer(e, Version).ServeStdio()
}
