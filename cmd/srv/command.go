package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "raffle"
	s.app.Usage = "Raffle ticket settlement and resolution on Peerplays"
	s.app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"RAFFLE_CONFIG"},
		},
	}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Serves the card payment webhook, cash sale and raffle management APIs.`,
		},
		{
			Action:      s.startSubscriber,
			Name:        "subscriber",
			Usage:       "Start service subscriber",
			Category:    "Worker",
			Description: `Consumes card payment events from the message queue.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Resolves raffles whose draw has passed and retries unsettled payouts.`,
		},
		{
			Action: s.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate the database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "Run only this migration version, all pending versions if empty",
				},
			},
			Category: "Database",
		},
		{
			Action: s.generateToken,
			Name:   "token",
			Usage:  "Print an operator access token",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "subject", Required: true, Usage: "Operator id"},
				&cli.StringFlag{Name: "role", Value: "operator", Usage: "operator or admin"},
			},
			Category: "Api",
		},
	}
}
