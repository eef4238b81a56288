package cmd

import (
	"context"
	"net"

	"github.com/vibast-solutions/ms-go-hackauth/app/controller"
	"github.com/vibast-solutions/ms-go-hackauth/app/metrics"
	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the hackathon authentication service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize application")
	}
	defer app.Close()

	startHTTPServer(cfg, app)
}

func startHTTPServer(cfg *config.Config, app *application) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	registry := metrics.NewRegistry()
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	authMiddleware := middleware.NewAuthMiddleware(app.sessions)
	userAuthController := controller.NewUserAuthController(app.userAuth, app.accounts, cfg.Cookie)
	verificationController := controller.NewVerificationController(app.verification, app.accounts)
	resetController := controller.NewPasswordResetController(app.resets, cfg.Tokens.MaskUnknownEmails)
	signupController := controller.NewExternalSignupController(app.signups, cfg.Site)

	user := e.Group("/user")
	user.POST("/refresh", userAuthController.Refresh)
	user.POST("/password/reset", resetController.Request)
	user.GET("/password/reset/:ref/:token", resetController.Check)
	user.POST("/password/reset/:ref/:token", resetController.Confirm)

	userOptional := user.Group("")
	userOptional.Use(authMiddleware.OptionalAuth)
	userOptional.POST("/signup", userAuthController.Signup)
	userOptional.POST("/login", userAuthController.Login)
	userOptional.GET("/verify/:ref/:token", verificationController.Redeem)
	userOptional.GET("/callback/:provider", signupController.Check)
	userOptional.POST("/callback/:provider", signupController.Signup)

	userProtected := user.Group("")
	userProtected.Use(authMiddleware.RequireAuth)
	userProtected.POST("/logout", userAuthController.Logout)
	userProtected.GET("/verify", verificationController.Status)
	userProtected.POST("/verify/send", verificationController.Send)

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
