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
	"github.com/openziti/pandapi/kernel/api"
	"github.com/openziti/pandapi/kernel/loader"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultEndpoint = "http://localhost:8080"

func init() {
	RootCmd.AddCommand(NewApplyCommand())
}

func NewApplyCommand() *cobra.Command {
	applyCmd := &ApplyCommand{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision every server declared in a fleet YAML file",
		RunE:  applyCmd.apply,
	}

	cmd.Flags().StringVarP(&applyCmd.ConfigPath, "config", "c", "", "path to fleet YAML file")
	cmd.Flags().BoolVar(&applyCmd.DryRun, "dry-run", false, "validate the fleet without provisioning")
	cmd.Flags().StringVar(&applyCmd.Endpoint, "endpoint", defaultEndpoint, "pandapi server address")
	cmd.Flags().IntVar(&applyCmd.Parallel, "parallel", 4, "maximum concurrent provision requests")
	cmd.MarkFlagRequired("config")

	return cmd
}

type ApplyCommand struct {
	ConfigPath string
	DryRun     bool
	Endpoint   string
	Parallel   int
}

func (a *ApplyCommand) apply(cmd *cobra.Command, args []string) error {
	fleet, err := loader.LoadFleet(a.ConfigPath)
	if err != nil {
		return errors.Wrap(err, "failed to load fleet")
	}

	if a.DryRun {
		logrus.Infof("dry-run: fleet '%s' declares %d server(s)", fleet.Id, len(fleet.Servers))
		for _, s := range fleet.Servers {
			logrus.Infof("  server '%s': cpus=%d memory=%dGB disk=%dGB", s.Name, s.Cpus, s.MemoryGB, s.DiskGB)
		}
		return nil
	}

	if a.Parallel < 1 {
		return errors.Errorf("parallel must be 1 or higher, got %d", a.Parallel)
	}

	client := api.NewClient(a.Endpoint)
	created := make([]model.Server, len(fleet.Servers))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.Parallel)
	for i, spec := range fleet.Servers {
		g.Go(func() error {
			server, err := client.Create(ctx, spec)
			if err != nil {
				return errors.Wrapf(err, "unable to provision '%s'", spec.Name)
			}
			created[i] = server
			logrus.Infof("provisioning '%s' as [%s] (%s)", server.Name, server.Id, server.State)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logrus.Infof("apply: fleet '%s' submitted, %d server(s) provisioning", fleet.Id, len(created))
	return nil
}
