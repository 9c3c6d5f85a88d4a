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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/oliveagle/jsonpath"
	"github.com/openziti/pandapi/kernel/api"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	RootCmd.AddCommand(NewServersCommand())
}

type ServersCommand struct {
	Endpoint string
	Output   string
	Query    string
}

func NewServersCommand() *cobra.Command {
	serversCmd := &ServersCommand{}

	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage servers on a running pandapi server",
	}

	cmd.PersistentFlags().StringVar(&serversCmd.Endpoint, "endpoint", defaultEndpoint, "pandapi server address")
	cmd.PersistentFlags().StringVarP(&serversCmd.Output, "output", "o", "", "output format: table or json (default table on a terminal, json otherwise)")
	cmd.PersistentFlags().StringVarP(&serversCmd.Query, "query", "q", "", "jsonpath expression applied to the json output, e.g. $.servers[0].id")

	cmd.AddCommand(serversCmd.newListCommand())
	cmd.AddCommand(serversCmd.newGetCommand())
	cmd.AddCommand(serversCmd.newCreateCommand())
	cmd.AddCommand(serversCmd.newDeleteCommand())

	return cmd
}

func (s *ServersCommand) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := api.NewClient(s.Endpoint).List(cmd.Context())
			if err != nil {
				return err
			}
			docs := api.ServerList{Servers: make([]api.ServerDoc, 0, len(servers))}
			for _, server := range servers {
				docs.Servers = append(docs.Servers, api.FromModel(server))
			}
			return s.render(cmd.OutOrStdout(), docs, servers)
		},
	}
}

func (s *ServersCommand) newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <server-id>",
		Short: "Show a single server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := api.NewClient(s.Endpoint).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc := api.FromModel(server)
			return s.render(cmd.OutOrStdout(), api.ServerEnvelope{Server: &doc}, []model.Server{server})
		},
	}
}

func (s *ServersCommand) newCreateCommand() *cobra.Command {
	spec := model.Server{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := api.NewClient(s.Endpoint).Create(cmd.Context(), spec)
			if err != nil {
				return err
			}
			doc := api.FromModel(server)
			return s.render(cmd.OutOrStdout(), api.ServerEnvelope{Server: &doc}, []model.Server{server})
		},
	}
	cmd.Flags().StringVar(&spec.Name, "name", "", "server name")
	cmd.Flags().IntVar(&spec.Cpus, "cpus", 1, "number of cpus")
	cmd.Flags().IntVar(&spec.MemoryGB, "memory", 1, "memory in gigabytes")
	cmd.Flags().IntVar(&spec.DiskGB, "disk", 10, "disk space in gigabytes")
	return cmd
}

func (s *ServersCommand) newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <server-id>",
		Short: "Decommission a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.NewClient(s.Endpoint).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "server %s is terminating\n", args[0])
			return err
		},
	}
}

func (s *ServersCommand) render(out io.Writer, doc interface{}, servers []model.Server) error {
	format := s.Output
	if s.Query != "" {
		format = "json"
	}
	if format == "" {
		format = "json"
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "table"
		}
	}

	switch format {
	case "table":
		renderTable(out, servers)
		return nil
	case "json":
		return s.renderJSON(out, doc)
	default:
		return errors.Errorf("unknown output format '%s' (table, json)", format)
	}
}

func (s *ServersCommand) renderJSON(out io.Writer, doc interface{}) error {
	var v interface{} = doc
	if s.Query != "" {
		data, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "unable to encode result")
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return errors.Wrap(err, "unable to decode result")
		}
		if v, err = jsonpath.JsonPathLookup(generic, s.Query); err != nil {
			return errors.Wrapf(err, "query [%s] failed", s.Query)
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(out io.Writer, servers []model.Server) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "NAME", "CPUS", "RAM (GB)", "DISK (GB)", "STATE"})
	for _, s := range servers {
		t.AppendRow(table.Row{s.Id, s.Name, s.Cpus, s.MemoryGB, s.DiskGB, s.State})
	}
	t.Render()
}
