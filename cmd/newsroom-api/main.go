// Command newsroom-api serves newsroom content behind the commonauth
// strategies: jwt for editors, bearer and plan3Key for partner newsrooms.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/bootstrap"
	"github.com/plan3/commonauth/commonauth"
	"github.com/plan3/commonauth/config"
	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/observability"
	"github.com/plan3/commonauth/server"
	"github.com/plan3/commonauth/version"
)

const serviceName = "newsroom-api"

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	flag.Parse()

	if err := run(context.Background(), *configFile); err != nil {
		logger.Fatal("newsroom-api stopped", logger.Fields(logger.FieldError, err.Error()))
	}
}

func run(ctx context.Context, configFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)

	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
		options, err := config.LoadOptions(a.Cfg.Auth.OptionsFile)
		if err != nil {
			return err
		}
		plugin := commonauth.New(commonauth.WithLogger(a.Logger))
		if err := srv.Register(ctx, plugin, options); err != nil {
			return err
		}
		routes(srv)
		return nil
	})

	return app.Run(ctx)
}

// routes mounts the newsroom endpoints. Handlers only echo what the
// strategies put into the credentials.
func routes(srv *server.Server) {
	srv.Route(http.MethodGet, "/whoami", &auth.PolicyOverride{Mode: auth.ModeTry}, whoami)

	api := srv.Group("/api", nil)
	api.GET("/articles", articles)

	srv.Route(http.MethodGet, "/feeds", &auth.PolicyOverride{Strategies: []string{string(commonauth.KindPlan3Key)}}, articles)
	srv.Route(http.MethodGet, "/ping", server.Public(), func(c *gin.Context) {
		server.RespondOK(c, gin.H{"pid": os.Getpid()})
	})
}

func whoami(c *gin.Context) {
	creds, ok := server.CredentialsFrom(c)
	if !ok {
		server.RespondOK(c, gin.H{"authenticated": false})
		return
	}
	strategy, _ := server.StrategyFrom(c)
	server.RespondOK(c, gin.H{"authenticated": true, "strategy": strategy, "credentials": creds})
}

func articles(c *gin.Context) {
	creds, _ := server.CredentialsFrom(c)
	server.RespondOK(c, gin.H{
		"newsroom": creds[commonauth.CredentialNewsroom],
		"articles": []string{},
	})
}
