package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bibsync/core/loader"
	"bibsync/core/logger"
	"bibsync/core/middleware/auth"
	"bibsync/core/middleware/rayid"
	"bibsync/feature/changes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "bibsync/docs/swagger"
)

// @title BibSync API
// @version 1.0
// @description Detects external changes to bibliography files and applies accepted ones.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the BibSync HTTP server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Configuration, logger, storage, history and the change service
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.log
		zap.ReplaceGlobals(logg)

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 3. Initialize Feature Loader
		locations, err := changes.NewLocations(a.cfg.Changes.Root, a.cfg.Storage.Bucket)
		if err != nil {
			return err
		}
		mgr := loader.NewManager()
		mgr.Register(changes.NewFeature(a.service, locations))
		logg.Info("Document locations confined", zap.String("root", a.cfg.Changes.Root))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{
			ApiKey: a.cfg.Server.ApiKey,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), "/swagger")
			},
		}))
		if !a.cfg.Server.AuthEnabled() {
			logg.Warn("API key not set, authentication disabled")
		}

		// 5. Load Features
		loaded, err := mgr.LoadAll(app)
		if err != nil {
			return err
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 6. Start Server
		errc := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			errc <- app.Listen(a.cfg.Server.Address())
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errc:
			return err
		case <-c:
		}
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(a.cfg.Server.ShutdownTimeout())
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
