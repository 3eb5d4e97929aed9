package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/appraisal/internal/appraisal/app"
)

type cliCtx struct {
	context.Context
	Config app.Config
}

type cli struct {
	Serve   ServeCmd         `cmd:"" default:"1" help:"Run the HTTP API (default)"`
	Migrate MigrateCmd       `cmd:"" help:"Apply database migrations and exit"`
	Version kong.VersionFlag `help:"Show version"`
}

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx *cliCtx) error {
	application, err := app.New(ctx, ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cliCtx) error {
	logger := app.NewLogger(ctx.Config)

	db, err := app.OpenDatabase(ctx, ctx.Config, logger)
	if err != nil {
		return err
	}
	return db.Close()
}

func main() {
	var cli cli
	kctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("appraisal"),
		kong.Description("Organizations, membership, clients and orders for appraisal firms."),
		kong.Vars{"version": app.BuildVersion},
	)

	cfg, err := app.LoadConfig()
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&cliCtx{Context: context.Background(), Config: cfg})
	kctx.FatalIfErrorf(err)
}
