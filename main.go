package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"planboard/internal/app"
	"planboard/internal/config"
	"planboard/internal/domain"
)

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	path := cmd.String("config")
	if err := config.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	identity := domain.Identity{
		UserID: cmd.String("user"),
		Tier:   domain.ParseTier(cmd.String("tier")),
	}
	if err := app.ServeMCP(ctx, identity, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "planboard",
		Usage: "Session planning canvas: cards, arrows and a drill timeline, persisted per coach",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Flags:  []cli.Flag{configFlag},
				Action: serve,
			},
			{
				Name:  "mcp",
				Usage: "Run a stdio MCP server on one coach's canvas",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User id whose layout to open",
						Required: true,
						Sources:  cli.EnvVars("PLANBOARD_USER"),
					},
					&cli.StringFlag{
						Name:  "tier",
						Usage: "Access tier: free or premium",
						Value: string(domain.TierFree),
					},
				},
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
