package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/api"
	"github.com/travigo/livetreinen/pkg/lookup"
	"github.com/urfave/cli/v2"
)

func main() {
	if os.Getenv("LIVETREINEN_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("LIVETREINEN_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "livetreinen",
		Description: "Caching proxy in front of the NS live train position and journey APIs",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			lookup.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
