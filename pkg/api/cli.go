package api

import (
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/dataaggregator/global"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the train position web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, overrides the config file",
					},
					&cli.StringFlag{
						Name:    "config",
						Usage:   "path to a YAML config file",
						EnvVars: []string{"LIVETREINEN_CONFIG"},
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					if c.String("listen") != "" {
						cfg.Listen = c.String("listen")
					}

					if err := global.Setup(c.Context, cfg); err != nil {
						return err
					}

					return SetupServer(cfg.Listen)
				},
			},
		},
	}
}
