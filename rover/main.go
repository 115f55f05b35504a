package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/gorover/internal/log"
	"github.com/itohio/gorover/pkg/bridge"
	"github.com/itohio/gorover/pkg/config"
	"github.com/itohio/gorover/pkg/monitor"
	"github.com/itohio/gorover/pkg/runner"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
)

func main() {
	app := cli.NewApp()
	app.Name = "rover"
	app.Usage = "drive the color following rover"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "config.yaml",
			Usage: "configuration file path",
		},
		cli.StringFlag{
			Name:  "port, p",
			Usage: "serial port override (e.g., COM3 or /dev/ttyACM0)",
		},
		cli.BoolFlag{
			Name:  "mock",
			Usage: "use simulated rover instead of serial port",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "log level override (debug, info, warn, error)",
		},
		cli.StringFlag{
			Name:  "http",
			Usage: "status monitor listen address (e.g., :8080)",
		},
	}
	app.Action = runAction
	app.Commands = []cli.Command{
		{
			Name:   "ports",
			Usage:  "list serial ports",
			Action: listPorts,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if p := c.GlobalString("port"); p != "" {
		cfg.Serial.Port = p
	}
	if l := c.GlobalString("log"); l != "" {
		cfg.Log.Level = l
	}
	if a := c.GlobalString("http"); a != "" {
		cfg.Monitor.Addr = a
	}

	log.Init(cfg.Log.Level)

	var device bridge.Device
	if c.GlobalBool("mock") {
		device = bridge.NewMock(&cfg.Mock)
		log.Info("using simulated rover")
	} else {
		device = bridge.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.Stale)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, device)
}

// run drives the rover until ctx is cancelled, serving the status monitor
// alongside when configured.
func run(ctx context.Context, cfg *config.Config, device bridge.Device) (err error) {
	chain := runner.New(cfg, device)

	if cfg.Monitor.Addr != "" {
		hub := monitor.New(chain.ID())
		chain.OnUpdate(hub.Publish)

		hubCtx, stopHub := context.WithCancel(context.Background())
		defer stopHub()
		go hub.Run(hubCtx)

		srv := &http.Server{
			Addr:              cfg.Monitor.Addr,
			Handler:           hub.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("monitor listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("monitor server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = multierr.Append(err, srv.Shutdown(shutdownCtx))
		}()
	}

	return chain.Run(ctx)
}

func listPorts(c *cli.Context) error {
	ports, err := bridge.Ports()
	if err != nil {
		return err
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
	return nil
}
