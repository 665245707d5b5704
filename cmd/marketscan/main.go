// marketscan runs the daily screening pipeline: fetch a universe of
// daily bars, compute technical indicators, evaluate screening
// strategies and commit everything per trading date.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/job"
	"github.com/marketscan-lab/marketscan/internal/server"
	"github.com/marketscan-lab/marketscan/internal/types"
)

func main() {
	cmd := &cli.Command{
		Name:  "marketscan",
		Usage: "Daily market screening pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			backfillCommand(),
			matchesCommand(),
			serveCommand(),
			scheduleCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// summaryExit converts a run summary into the process exit status: any
// failed date makes the whole invocation fail.
func summaryExit(summary job.Summary) error {
	failed := summary.FailedDates()
	if len(failed) == 0 {
		return nil
	}

	msg := fmt.Sprintf("%d of %d dates failed", len(failed), len(summary.Outcomes))
	for _, o := range failed {
		msg += fmt.Sprintf("\n  %s: %v", o.Date, o.Err)
	}

	return cli.Exit(msg, 1)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the pipeline for a single trading date",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "date",
				Aliases:  []string{"d"},
				Usage:    "Trading date in `YYYY-MM-DD` format",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			date, err := types.ParseTradingDate(cmd.String("date"))
			if err != nil {
				return err
			}

			app, err := newApp(cmd.String("config"))
			if err != nil {
				return err
			}
			defer app.Close()

			runCtx, cancel := signalContext()
			defer cancel()

			return summaryExit(app.runner.RunDates(runCtx, []types.TradingDate{date}))
		},
	}
}

func backfillCommand() *cli.Command {
	return &cli.Command{
		Name:  "backfill",
		Usage: "Run the pipeline for a range or explicit list of dates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (inclusive)",
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format (inclusive)",
			},
			&cli.StringSliceFlag{
				Name:  "dates",
				Usage: "Explicit trading dates, overrides --start/--end",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd.String("config"))
			if err != nil {
				return err
			}
			defer app.Close()

			runCtx, cancel := signalContext()
			defer cancel()

			if explicit := cmd.StringSlice("dates"); len(explicit) > 0 {
				dates := make([]types.TradingDate, 0, len(explicit))

				for _, s := range explicit {
					d, err := types.ParseTradingDate(s)
					if err != nil {
						return err
					}

					dates = append(dates, d)
				}

				return summaryExit(app.runner.RunDates(runCtx, dates))
			}

			start, err := types.ParseTradingDate(cmd.String("start"))
			if err != nil {
				return err
			}

			end, err := types.ParseTradingDate(cmd.String("end"))
			if err != nil {
				return err
			}

			summary, err := app.runner.RunRange(runCtx, start, end)
			if err != nil {
				return err
			}

			return summaryExit(summary)
		},
	}
}

func matchesCommand() *cli.Command {
	return &cli.Command{
		Name:  "matches",
		Usage: "Print the stored strategy matches for a trading date",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "date",
				Aliases:  []string{"d"},
				Usage:    "Trading date in `YYYY-MM-DD` format",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Restrict output to one strategy",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			date, err := types.ParseTradingDate(cmd.String("date"))
			if err != nil {
				return err
			}

			app, err := newApp(cmd.String("config"))
			if err != nil {
				return err
			}
			defer app.Close()

			matches, err := app.store.GetStrategyResults(ctx, date, cmd.String("strategy"))
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				fmt.Printf("no matches for %s\n", date)

				return nil
			}

			for _, m := range matches {
				fmt.Printf("%s\t%s\t%s\tscore=%.2f\n", m.Strategy, m.Code, m.Name, m.Score)
			}

			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only query API over the store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen address, overrides the configured one",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd.String("config"))
			if err != nil {
				return err
			}
			defer app.Close()

			listen := app.cfg.Server.Listen
			if v := cmd.String("listen"); v != "" {
				listen = v
			}

			srv := server.New(app.store, listen, app.logger)

			runCtx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			return srv.Shutdown(shutdownCtx)
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the pipeline on a cron schedule after market close",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cron",
				Usage: "Cron expression for the daily trigger",
				Value: "30 15 * * MON-FRI",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd.String("config"))
			if err != nil {
				return err
			}
			defer app.Close()

			runCtx, cancel := signalContext()
			defer cancel()

			c := cron.New()

			_, err = c.AddFunc(cmd.String("cron"), func() {
				date := app.calendar.LatestTradingDate(time.Now())

				outcome := app.runner.RunDate(runCtx, date)
				if outcome.State == job.StateFailed {
					app.logger.Error("scheduled run failed",
						zap.String("date", date.String()),
						zap.Error(outcome.Err))
				}
			})
			if err != nil {
				return err
			}

			c.Start()
			app.logger.Info("scheduler started", zap.String("cron", cmd.String("cron")))

			<-runCtx.Done()

			stopCtx := c.Stop()
			<-stopCtx.Done()

			return nil
		},
	}
}
