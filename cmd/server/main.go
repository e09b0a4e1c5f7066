package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	reviews "github.com/goliatone/go-reviews"
	"github.com/goliatone/go-reviews/config"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "go-reviews: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("go-reviews", pflag.ExitOnError)
	config.RegisterFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	configFile, _ := flags.GetString("config")
	cfg, err := config.Load(config.Options{File: configFile, Flags: flags})
	if err != nil {
		return err
	}

	lgr := newLogger(cfg.Logging)
	logger := lgr.GetLogger("main")
	if cfg.Persistence.Debug {
		fmt.Println(print.MaybePrettyJSON(cfg.Persistence))
	}
	if cfg.UsesInsecureSigningKey() {
		logger.Warn("using the built in signing key, set auth.signing_key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := reviews.OpenDB(cfg.Persistence.Driver, cfg.Persistence.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := reviews.Migrate(ctx, db, cfg.Persistence.Driver); err != nil {
		return err
	}

	passwords := reviews.BcryptAuthenticator{Cost: cfg.Auth.BcryptCost}
	repo := reviews.NewRepositoryManager(db,
		reviews.WithPasswordHasher(passwords),
		reviews.WithHashidIDs(cfg.Auth.UseHashid),
	)
	repo.MustValidate()

	tokens := reviews.NewTokenService([]byte(cfg.Auth.SigningKey), cfg.Auth.Issuer, lgr.GetLogger("tokens"))
	sessions := reviews.NewAuthenticator(repo.Users(), tokens).
		WithLogger(lgr.GetLogger("sessions")).
		WithPasswordAuthenticator(passwords).
		WithActivitySink(reviews.LoggerActivitySink(lgr.GetLogger("activity"))).
		WithUniformLoginErrors(cfg.Auth.UniformLoginErrors)

	if cfg.Admin.Email != "" {
		admin, err := reviews.NewEnsureAdminHandler(repo, lgr.GetLogger("admin")).
			Execute(ctx, reviews.EnsureAdminMessage{Email: cfg.Admin.Email, Password: cfg.Admin.Password})
		if err != nil {
			return err
		}
		logger.Info("admin account ready", "email", admin.Email)
	}

	httpAuth := reviews.NewHTTPAuthenticator(sessions, reviews.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
	}).WithLogger(lgr.GetLogger("http"))

	app := reviews.NewApp(reviews.AppConfig{
		Views:     reviews.NewViewEngine(cfg.Environment == config.DefaultEnvironment),
		Logger:    lgr.GetLogger("app"),
		AccessLog: true,
	})
	srv := reviews.NewServer(app)
	srv.Router().Use(httpAuth.Middleware())

	reviews.RegisterRoutes(srv.Router(), func(c *reviews.Controller) *reviews.Controller {
		c.Debug = cfg.Persistence.Debug
		c.Repo = repo
		c.Sessions = sessions
		c.Auther = httpAuth
		c.Registrar = reviews.NewRegisterUserHandler(repo, tokens)
		if cfg.Content.PageSize > 0 {
			c.PageSize = cfg.Content.PageSize
		}
		return c.WithLogger(lgr.GetLogger("controller"))
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address, "env", cfg.Environment)
		errCh <- srv.Serve(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
