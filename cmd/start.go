package cmd

import (
	"context"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/pbrane/newts/pkg/search"
	searchfiber "github.com/pbrane/newts/pkg/search/fiber"
	"github.com/pbrane/newts/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"net"
	"os"
	"os/signal"
	"syscall"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a Newts resource node",
	Long: `Opens the resource index in the data directory and serves it over HTTP
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		logger, err := configureLogging()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		// Restore default signal handling once shutdown begins so that a second
		// interrupt terminates the process.
		go func() {
			<-ctx.Done()
			stop()
		}()

		// Set up the storage backend.
		store, err := storage.Open(newStorageConfig(logger))
		if err != nil {
			return err
		}
		defer func() {
			err = errors.CombineErrors(err, store.Close())
		}()

		idx, err := search.Open(search.Config{
			KV:     store.KV,
			Logger: logger.Named("search"),
		})
		if err != nil {
			return err
		}

		app := fiber.New(searchfiber.Config())
		searchfiber.New(idx, logger.Named("http")).BindTo(app)

		addr := viper.GetString("listen-address")
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return errors.Wrapf(err, "[newts] - failed to listen on %s", addr)
		}
		logger.Info("serving resources", zap.String("address", ln.Addr().String()))
		return serve(ctx, app, ln, logger)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringP(
		"listen-address",
		"l",
		"127.0.0.1:8080",
		"Address the HTTP server listens on.",
	)

	startCmd.Flags().StringP(
		"data",
		"d",
		"newts-data",
		"Dirname where Newts will store its data.",
	)

	startCmd.Flags().Bool(
		"mem",
		false,
		"Keep all data in memory. Nothing is written to the data directory.",
	)

	if err := viper.BindPFlags(startCmd.Flags()); err != nil {
		panic(err)
	}
}

func newStorageConfig(logger *zap.Logger) storage.Config {
	return storage.Config{
		MemBacked: viper.GetBool("mem"),
		Dirname:   viper.GetString("data"),
		Logger:    logger.Named("storage"),
	}
}

func configureLogging() (*zap.Logger, error) {
	if viper.GetBool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// serve runs app on ln until ctx is done or the server fails. The listener is closed on
// shutdown even when the server has not started accepting on it yet.
func serve(ctx context.Context, app *fiber.App, ln net.Listener, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listener(ln); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		err := app.Shutdown()
		_ = ln.Close()
		return err
	})
	return g.Wait()
}
