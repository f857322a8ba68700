package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dshills/chatgraph/chat"
	"github.com/dshills/chatgraph/graph"
	"github.com/dshills/chatgraph/graph/emit"
	"github.com/dshills/chatgraph/graph/model"
	"github.com/dshills/chatgraph/internal/app"
	"github.com/dshills/chatgraph/internal/config"
	"github.com/dshills/chatgraph/internal/server"
)

// loadConfig resolves the configuration and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the HTTP server (overrides PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.New(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			srv := server.New(server.Deps{
				Live:     rt.Live,
				Mock:     rt.Mock,
				Gatherer: rt.Registry,
				Logger:   rt.Logger,
			})
			return srv.Run(ctx, cfg.Server.Addr(), cfg.Server.ShutdownTimeout)
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one message through a chat graph and print the reply",
		ArgsUsage: "MESSAGE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Use the mock graph instead of the language model",
			},
			&cli.StringFlag{
				Name:  "system",
				Usage: "Prepend a system message",
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "Print the graph events after the reply",
			},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				return fmt.Errorf("a message is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			opts := app.Options{}
			if c.Bool("mock") {
				// the live graph still needs a model; it is never called
				opts.Model = &model.MockChatModel{}
			}
			events := emit.NewBufferedEmitter()
			if c.Bool("events") {
				opts.Emitter = events
			}

			rt, err := app.New(c.Context, cfg, opts)
			if err != nil {
				return err
			}
			defer closeRuntime(rt)

			g := rt.Live
			if c.Bool("mock") {
				g = rt.Mock
			}

			var msgs []model.Message
			if sys := c.String("system"); sys != "" {
				msgs = append(msgs, model.SystemMessage(sys))
			}
			msgs = append(msgs, model.UserMessage(text))

			runID := "ask"
			final, err := g.Invoke(graph.ContextWithRunID(c.Context, runID), chat.NewState(msgs...))
			if err != nil {
				return err
			}

			out := c.App.Writer
			fmt.Fprintln(out, final.Reply())
			if c.Bool("events") {
				printEvents(out, events.History(runID))
				if !c.Bool("mock") {
					u := rt.Model.Usage()
					fmt.Fprintf(out, "tokens input=%d output=%d\n", u.InputTokens, u.OutputTokens)
				}
			}
			return nil
		},
	}
}

// closeRuntime releases rt and logs any failure.
func closeRuntime(rt *app.App) {
	if err := rt.Close(context.Background()); err != nil {
		rt.Logger.Error().Err(err).Msg("release resources")
	}
}

func printEvents(w io.Writer, events []emit.Event) {
	for _, e := range events {
		line := fmt.Sprintf("%d %-12s", e.Step, e.Msg)
		if e.NodeID != "" {
			line += " node=" + e.NodeID
		}
		if latency, ok := e.Meta["latency_ms"]; ok {
			line += fmt.Sprintf(" latency=%vms", latency)
		}
		if status, ok := e.Meta["status"]; ok {
			line += fmt.Sprintf(" status=%v", status)
		}
		fmt.Fprintln(w, line)
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination `FILE`",
						Value: "chatgraph.toml",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("path")
					if err := config.WriteSample(path); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Wrote sample configuration to %s\n", path)
					return nil
				},
			},
		},
	}
}
