// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver"
	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	app = cli.NewApp()
	log *logrus.Entry
)

func initLog() {
	log = logrus.WithFields(logrus.Fields{
		"app":    "discv5-harness",
		"prefix": "main",
	})
}

func init() {
	initLog()

	app.Action = action
	app.Copyright = "Copyright (c) 2021 DUSK"
	app.Name = "discv5-harness"
	app.Usage = "runs discv5 topic discovery experiments over a feature table"
	app.Author = "DUSK 2021"
	app.Version = semver.MustParse(cfg.HarnessVersion).String()
	app.Commands = []cli.Command{
		{
			Name:    "features",
			Aliases: []string{"f"},
			Usage:   "prints the feature table as JSON",
			Action:  featuresAction,
			Flags:   commandFlags(VerbosityFlag),
		},
		{
			Name:   "validate",
			Usage:  "validates the feature table",
			Action: validateAction,
			Flags:  commandFlags(VerbosityFlag),
		},
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "runs the sweep of the selected mode (default)",
			Action:  action,
			Flags:   commandFlags(CLIFlags...),
		},
		{
			Name:   "serve",
			Usage:  "starts the results browser",
			Action: serveAction,
			Flags:  commandFlags(VerbosityFlag),
		},
	}
	app.Flags = append(app.Flags, CLIFlags...)
	app.Flags = append(app.Flags, GlobalFlags...)
}

func main() {
	defer handlePanic()

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		log.WithError(fmt.Errorf("%+v", r)).Errorln("Application panic")
		os.Exit(2)
	}
}
