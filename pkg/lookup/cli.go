package lookup

import (
	"context"
	"errors"

	"github.com/kr/pretty"
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator"
	"github.com/travigo/livetreinen/pkg/dataaggregator/global"
	"github.com/travigo/livetreinen/pkg/dataaggregator/query"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/ns"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Query the NS API through the cache and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{"LIVETREINEN_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			return global.Setup(c.Context, cfg)
		},
		Subcommands: []*cli.Command{
			{
				Name:  "positions",
				Usage: "print current train positions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "train",
						Usage: "only the train with this ritId",
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "boolean expression over the upstream fields, e.g. 'snelheid > 100'",
					},
				},
				Action: func(c *cli.Context) error {
					positionsQuery := query.TrainPositions{TrainID: c.String("train")}

					if c.String("filter") != "" {
						program, err := ns.CompileFilter(c.String("filter"))
						if err != nil {
							return err
						}
						positionsQuery.Filter = program
					}

					return printLookup[[]*ctdf.TrainPosition](c.Context, positionsQuery)
				},
			},
			{
				Name:      "journey",
				Usage:     "print the next stop and delay of a train",
				ArgsUsage: "<train number>",
				Action: func(c *cli.Context) error {
					return printLookup[*ctdf.JourneyDetail](c.Context, query.JourneyDetails{TrainNumber: c.Args().First()})
				},
			},
			{
				Name:      "stations",
				Usage:     "print stations",
				ArgsUsage: "[station code]",
				Action: func(c *cli.Context) error {
					return printLookup[[]*ctdf.Station](c.Context, query.Stations{StationCode: c.Args().First()})
				},
			},
			{
				Name:      "stats",
				Usage:     "print the recorded history of a train",
				ArgsUsage: "<ritId>",
				Action: func(c *cli.Context) error {
					if c.Args().First() == "" {
						return errors.New("a ritId is required")
					}

					return printLookup[*ctdf.TrainStats](c.Context, query.TrainStats{TrainID: c.Args().First()})
				},
			},
		},
	}
}

func printLookup[T any](ctx context.Context, q any) error {
	result, err := dataaggregator.Lookup[T](ctx, q)
	if err != nil {
		return err
	}

	pretty.Println(result)

	return nil
}
