package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-session-client/internal/app"
	"github.com/jrsteele09/go-session-client/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	if err := execute(ctx, os.Stdout, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// execute runs one command line and releases the app's storage afterwards, including
// when the command failed.
func execute(ctx context.Context, out io.Writer, args []string) error {
	c := &cli{out: out}
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := c.app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// cli carries the composed app between cobra hooks and subcommands.
type cli struct {
	app   *app.App
	out   io.Writer
	quiet bool
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Drive the community app session from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.quiet {
				displayAppname(c.out, c.app.Config.GetAppName())
			}
			return cmd.Help()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.out)
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "suppress the banner")

	root.AddCommand(
		c.loginCmd(),
		c.socialCmd(),
		c.logoutCmd(),
		c.restoreCmd(),
		c.whoamiCmd(),
		c.registerCmd(),
		c.checkEmailCmd(),
		c.checkNameCmd(),
		c.onboardedCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(cfg.GetLogLevel())

	a, err := app.New(ctx, cfg, app.WithLogger(log.Logger))
	if err != nil {
		log.Err(err).Msg("failed to start")
		return err
	}
	c.app = a
	return nil
}

func setupLogging(level zerolog.Level) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
