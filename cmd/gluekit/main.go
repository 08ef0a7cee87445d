package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/dev-tams/gluekit/internal/app"
	"github.com/dev-tams/gluekit/internal/config"
	"github.com/dev-tams/gluekit/internal/env"
	"github.com/dev-tams/gluekit/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gluekit",
		Usage: "helpers for AWS Glue ETL jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "",
				Usage:   "log level (debug, info, warn, error); overrides logging.level from config",
				EnvVars: []string{"GLUEKIT_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "truncate",
				Usage: "delete every object under the prefixes of the configured truncate jobs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "path to config yaml or toml",
					},
					&cli.StringSliceFlag{
						Name:  "job",
						Usage: "truncate job name from config (repeatable; defaults to all jobs)",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadValidatedConfig(c.String("config"))
					if err != nil {
						return err
					}

					level := cfg.Logging.Level
					if c.IsSet("log-level") {
						level = c.String("log-level")
					}
					log := logging.New("truncate", level, os.Stderr)

					return app.RunTruncate(c.Context, cfg, c.StringSlice("job"), log)
				},
			},
			{
				Name:  "env",
				Usage: "print the detected execution environment (glue or local)",
				// glue job arguments (--JOB_NAME etc.) are passed through untouched
				SkipFlagParsing: true,
				Action: func(c *cli.Context) error {
					log := logging.New("env", c.String("log-level"), c.App.ErrWriter)
					detected := env.DetermineEnv(log, os.LookupEnv, c.Args().Slice())

					out, err := json.Marshal(detected)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(out))
					return nil
				},
			},
			{
				Name:  "soql",
				Usage: "print a sanitized SOQL query for a Salesforce entity",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from-toml",
						Usage: "toml file with a [salesforce] table (flags override it)",
					},
					&cli.StringFlag{
						Name:  "entity",
						Usage: "salesforce object name",
					},
					&cli.StringSliceFlag{
						Name:  "field",
						Usage: "field to extract (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "ignore-id",
						Usage: "record id to exclude (repeatable)",
					},
					&cli.StringFlag{
						Name:  "ignore-ids-file",
						Usage: "file with one record id to exclude per line",
					},
				},
				Action: func(c *cli.Context) error {
					fs := afero.NewOsFs()

					var req app.SOQLRequest
					if p := c.String("from-toml"); p != "" {
						fromFile, err := app.LoadSOQLRequest(fs, p)
						if err != nil {
							return err
						}
						req = fromFile
					}
					req = req.Merge(app.SOQLRequest{
						Entity:        c.String("entity"),
						Fields:        c.StringSlice("field"),
						IgnoreIDs:     c.StringSlice("ignore-id"),
						IgnoreIDsFile: c.String("ignore-ids-file"),
					})

					query, err := app.BuildSOQL(fs, req)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, query)
					return nil
				},
			},
		},
	}
}

func loadValidatedConfig(cfgPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
