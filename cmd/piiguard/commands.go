package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"

	"github.com/ai8future/piiguard"
	"github.com/ai8future/piiguard/cmd/piiguard/commands"
	"github.com/ai8future/piiguard/config"
	"github.com/ai8future/piiguard/metrics"
)

// app is what every command that touches keys needs.
type app struct {
	logger    *logrus.Logger
	protector *piiguard.Protector
	service   piiguard.Service
}

// loadApp reads the environment, builds the Protector and, when metrics
// are enabled, wraps it with the global OpenTelemetry meter provider. ctx is
// the command's context and is carried into every recorded measurement.
func loadApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	p, err := config.Build(cfg, logger)
	if err != nil {
		return nil, err
	}

	var svc piiguard.Service = p
	if cfg.MetricsEnabled {
		bm, err := metrics.NewBusinessMetrics(otel.GetMeterProvider(), cfg.MetricsNamespace)
		if err != nil {
			return nil, err
		}
		svc = metrics.NewServiceWithMetrics(ctx, p, bm)
	}

	return &app{logger: logger, protector: p, service: svc}, nil
}

func getCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "check-config",
			Usage: "Validate the environment configuration and print a summary",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				return commands.RunCheckConfig(cfg, config.NewLogger(cfg), commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "generate-key",
			Usage: "Generate a new 32-byte key ring entry",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "key-version",
					Aliases: []string{"k"},
					Usage:   "Key version label (e.g., v2)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunGenerateKey(cmd.String("key-version"), commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "hash",
			Usage: "Compute the blind index of a value with BLIND_INDEX_PEPPER",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "value",
					Required: true,
					Usage:    "Value to hash",
				},
				&cli.StringFlag{
					Name:    "normalizer",
					Aliases: []string{"n"},
					Value:   "none",
					Usage:   "Normalizer: none, trim, lower, digits, document or name",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				return commands.RunHash(
					cfg.BlindIndexPepper,
					cmd.String("value"),
					cmd.String("normalizer"),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "protect-field",
			Usage: "Seal a field value and print the resulting columns",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "entity", Aliases: []string{"e"}, Value: piiguard.EntityEmployee, Usage: "Entity name"},
				&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Required: true, Usage: "Field name (e.g., kig)"},
				&cli.StringFlag{Name: "value", Required: true, Usage: "Plaintext value"},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				rt, err := loadApp(ctx)
				if err != nil {
					return err
				}
				return commands.RunProtectField(
					rt.service,
					cmd.String("entity"),
					cmd.String("field"),
					cmd.String("value"),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "search",
			Usage: "Print the SQL condition that finds rows by a searchable field",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "entity", Aliases: []string{"e"}, Value: piiguard.EntityEmployee, Usage: "Entity name"},
				&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Required: true, Usage: "Field name (e.g., kig)"},
				&cli.StringFlag{Name: "column", Aliases: []string{"c"}, Usage: "Column prefix, defaults to the field name"},
				&cli.StringFlag{Name: "value", Required: true, Usage: "Value to search for"},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				rt, err := loadApp(ctx)
				if err != nil {
					return err
				}
				return commands.RunSearch(
					rt.protector,
					cmd.String("column"),
					cmd.String("entity"),
					cmd.String("field"),
					cmd.String("value"),
					commands.DefaultIO().Writer,
				)
			},
		},
		documentCommand("encrypt-file", "Protect a document and write its payload as JSON", commands.RunEncryptFile),
		documentCommand("decrypt-file", "Open a JSON payload and write the document bytes", commands.RunDecryptFile),
	}
}

type documentRunner func(piiguard.Service, logrus.FieldLogger, commands.IOTuple, string) error

func documentCommand(name, usage string, run documentRunner) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Document type (e.g., passport)"},
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Value: "-", Usage: "Input file, - for stdin"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "Output file, - for stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := loadApp(ctx)
			if err != nil {
				return err
			}

			in, closeIn, err := commands.OpenInput(cmd.String("in"))
			defer closeIn()
			if err != nil {
				return err
			}
			out, err := commands.NewOutput(cmd.String("out"))
			if err != nil {
				return err
			}

			if err := run(rt.service, rt.logger, commands.IOTuple{Reader: in, Writer: out}, cmd.String("type")); err != nil {
				return err
			}
			return out.Commit()
		},
	}
}
