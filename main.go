package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"

	"aerarium/auth"
	"aerarium/config"
	"aerarium/controllers"
	"aerarium/database"
	"aerarium/localization"
	"aerarium/logging"
	"aerarium/mail"
	"aerarium/repositories"
	"aerarium/services"
	"aerarium/token"
)

// requestLogger logs every request with its latency after the handler
// chain has run.
func requestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

// recoverHandler turns panics in handlers into a generic 500 response.
func recoverHandler(logger *zap.Logger) func(interface{}, http.ResponseWriter) {
	return func(reason interface{}, w http.ResponseWriter) {
		logger.Error("Recovered from panic", zap.Any("reason", reason))
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "An internal error occurred"}`))
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// The mailer logs through the plain logger. The application logger
	// additionally mails error-level entries to the system admins, and
	// routing a mailer's own failures back into mail delivery would loop.
	from := cfg.MailFrom
	if from == "" {
		from = "no-reply@localhost"
	}
	var sender mail.Sender
	if cfg.MailServer != "" {
		sender, err = mail.NewSMTPSender(mail.SMTPConfig{
			Server:   cfg.MailServer,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			UseTLS:   cfg.MailUseTLS,
			UseSSL:   cfg.MailUseSSL,
		})
		if err != nil {
			logger.Fatal("Failed to connect mail dispatch", zap.Error(err))
		}
	} else {
		logger.Warn("No mail server configured, mails are written to the log")
		sender = mail.NewLogSender(logger)
	}
	mailer, err := mail.NewMailer(sender, logger, cfg.TitleShort, from)
	if err != nil {
		logger.Fatal("Failed to initialize mail dispatch", zap.Error(err))
	}

	appLogger := logger
	if cfg.IsProduction() && len(cfg.SysAdmins) > 0 {
		appLogger = logging.AttachErrorMailer(logger, mailer, cfg.SysAdmins)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal("Failed to connect to the database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("Failed to migrate the database", zap.Error(err))
	}
	if err := database.Seed(db, appLogger, cfg.BcryptCost); err != nil {
		appLogger.Fatal("Failed to seed the database", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)

	languages := localization.New(cfg.Languages)
	sessions := auth.NewSessionManager([]byte(cfg.SecretKey))
	guard := auth.NewGuard(userRepo)
	tokens := token.NewIssuer([]byte(cfg.SecretKey), time.Duration(cfg.TokenValidity)*time.Second)

	authService := services.NewAuthService(userRepo, sessions)
	profileService := services.NewProfileService(
		userRepo, tokens, mailer, appLogger, languages,
		cfg.BaseURL, cfg.SupportAddress, cfg.BcryptCost,
	)
	userService := services.NewUserService(userRepo, languages, cfg.ItemsPerPage)
	roleService := services.NewRoleService(roleRepo, cfg.ItemsPerPage)

	container := restful.NewContainer()
	container.Filter(requestLogger(appLogger))
	container.RecoverHandler(recoverHandler(appLogger))

	ws := new(restful.WebService)
	ws.Path("/").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	controllers.NewAuthController(authService, profileService, appLogger).RegisterRoutes(ws)
	controllers.NewProfileController(profileService, sessions, appLogger).RegisterRoutes(ws)
	controllers.NewAdminUsersController(userService, sessions, guard, appLogger).RegisterRoutes(ws)
	controllers.NewAdminRolesController(roleService, sessions, guard, appLogger).RegisterRoutes(ws)
	container.Add(ws)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
		PostBuildSwaggerObjectHandler: func(swo *spec.Swagger) {
			swo.Info = &spec.Info{
				InfoProps: spec.InfoProps{
					Title:       cfg.TitleShort,
					Description: "User, role, and profile management API",
					Version:     "1.0.0",
				},
			}
		},
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      container,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-stop

	appLogger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}

	// Pending mails are still on their dispatch goroutines.
	mailer.Wait()
	appLogger.Info("Server stopped")
}
