package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tahnok/unbound-ddns/checker"
	"github.com/tahnok/unbound-ddns/client"
	"github.com/tahnok/unbound-ddns/updater"
)

func main() {
	app := &cli.App{
		Name:  "unbound-ddns-check",
		Usage: "verify a dynamic DNS deployment end to end",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log verbosity (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := log.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "query a DNS server for an A record",
				ArgsUsage: "<domain>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "server",
						Value: "127.0.0.1",
						Usage: "DNS server address",
					},
					&cli.IntFlag{
						Name:  "port",
						Value: 53,
						Usage: "DNS server port",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 5 * time.Second,
						Usage: "query timeout",
					},
				},
				Action: func(c *cli.Context) error {
					domain := c.Args().First()
					if domain == "" {
						return cli.Exit("usage: resolve <domain>", 2)
					}

					serverAddr := net.JoinHostPort(c.String("server"), strconv.Itoa(c.Int("port")))
					dns := client.NewDNSClient(serverAddr, c.Duration("timeout"))

					addr := dns.ResolveA(domain)
					if addr == "" {
						return cli.Exit("no address found", 1)
					}
					fmt.Println(addr)
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "push a record update to the ddns HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "api",
						Usage:    "base URL of the ddns service",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "key",
						Usage:    "bearer key for the domain",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "domain",
						Usage:    "domain to update",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ip",
						Usage: "address to set (omit to let the server auto-detect)",
					},
				},
				Action: func(c *cli.Context) error {
					api := updater.NewUpdateClient(c.String("api"))
					message, err := api.Update(context.Background(), c.String("key"), c.String("domain"), c.String("ip"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Println(message)
					return nil
				},
			},
			{
				Name:  "wait",
				Usage: "wait until the ddns HTTP API answers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "URL to poll",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 30 * time.Second,
						Usage: "how long to keep polling",
					},
				},
				Action: func(c *cli.Context) error {
					if !updater.WaitForService(c.String("url"), c.Duration("timeout")) {
						return cli.Exit("service did not start in time", 1)
					}
					fmt.Println("service is ready")
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "run an update-then-resolve check suite",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "api",
						Usage:    "base URL of the ddns service",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "checks",
						Usage:    "path to the JSON check suite",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "server",
						Value: "127.0.0.1",
						Usage: "DNS server address",
					},
					&cli.IntFlag{
						Name:  "port",
						Value: 53,
						Usage: "DNS server port",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 5 * time.Second,
						Usage: "DNS query timeout",
					},
					&cli.DurationFlag{
						Name:  "settle",
						Value: 2 * time.Second,
						Usage: "grace period between update and query",
					},
					&cli.DurationFlag{
						Name:  "wait",
						Value: 30 * time.Second,
						Usage: "how long to wait for the service to come up",
					},
				},
				Action: func(c *cli.Context) error {
					checks, err := checker.LoadChecks(c.String("checks"))
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}

					report := checker.NewReporter(os.Stdout)
					report.Header("Unbound DDNS Integration Check")

					report.Info("Waiting for the ddns service to be ready...")
					if !updater.WaitForService(c.String("api")+"/update", c.Duration("wait")) {
						report.Error("Service did not start in time")
						return cli.Exit("", 1)
					}
					report.Success("Service is ready")

					serverAddr := net.JoinHostPort(c.String("server"), strconv.Itoa(c.Int("port")))
					runner := &checker.Runner{
						API:    updater.NewUpdateClient(c.String("api")),
						DNS:    client.NewDNSClient(serverAddr, c.Duration("timeout")),
						Settle: c.Duration("settle"),
						Report: report,
					}

					summary := runner.Run(context.Background(), checks)
					if !summary.Ok() {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
