// Package main provides the piiguard operator CLI.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "piiguard",
		Usage:    "Field and document encryption toolbox for employee PII",
		Version:  version,
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Error("application error")
		os.Exit(1)
	}
}
