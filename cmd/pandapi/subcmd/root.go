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
	"os"
	"path/filepath"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/pandapi/kernel/engine"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/openziti/pandapi/kernel/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "v0.1.0"

var (
	logLevel   string
	configPath string
)

var RootCmd = &cobra.Command{
	Use:          "pandapi",
	Short:        "Server provisioning API with a timed lifecycle",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(err, "invalid log level [%s]", logLevel)
		}
		pfxlog.GlobalInit(level, pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/"))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config-file", "", "path to config file (default ~/.pandapi/"+model.ConfigFileName+")")
}

func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the explicit config file when one was given, otherwise the
// per-user file if present, otherwise the defaults.
func loadConfig() (*model.Config, error) {
	if configPath != "" {
		return model.LoadConfig(configPath)
	}
	if cfg := tryLoadConfig(); cfg != nil {
		return cfg, nil
	}
	return model.DefaultConfig(), nil
}

func tryLoadConfig() *model.Config {
	cfgDir, err := model.ConfigDir()
	if err != nil {
		return nil
	}
	configFile := filepath.Join(cfgDir, model.ConfigFileName)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil
	}
	cfg, err := model.LoadConfig(configFile)
	if err != nil {
		pfxlog.Logger().WithError(err).Warnf("ignoring config [%s]", configFile)
		return nil
	}
	return cfg
}

func newEngine(cfg *model.Config, observer engine.Observer) (*engine.Engine, error) {
	driver, err := model.GetDriver(cfg.Driver)
	if err != nil {
		return nil, errors.Wrapf(err, "available drivers: %v", model.DriverNames())
	}

	opts := []engine.Option{
		engine.WithDelays(engine.DelaysFromConfig(cfg.Delays)),
		engine.WithDriver(driver),
		engine.WithLogger(pfxlog.Logger().WithField("component", "lifecycle")),
	}
	if observer != nil {
		opts = append(opts, engine.WithObserver(observer))
	}
	return engine.NewEngine(store.NewMemoryStore(), engine.NewTimerScheduler(cfg.Workers), opts...), nil
}
