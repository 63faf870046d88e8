// Package main provides the chatshorts command line tool for previewing
// conversations offline and operating a deployment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drewmudry/chatshorts-api/auth"
	"github.com/drewmudry/chatshorts-api/config"
	"github.com/drewmudry/chatshorts-api/internal/app"
	"github.com/drewmudry/chatshorts-api/internal/platform"
	"github.com/spf13/cobra"
)

func main() {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "chatshorts",
		Short:         "Turn chat conversations into short talking-avatar videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			config.ConfigureLogging(cfg.LogLevel)
			return nil
		},
	}

	// preview command - enrich and lay out a conversation without any services
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the frame layout of a conversation fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			frames, _ := cmd.Flags().GetIntSlice("frame")

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			fixture, err := ParseFixture(data)
			if err != nil {
				return err
			}
			return Preview(cmd.Context(), fixture, cfg.Timeline.Options(), frames, cmd.OutOrStdout())
		},
	}
	previewCmd.Flags().StringP("file", "f", "conversation.yaml", "Conversation fixture")
	previewCmd.Flags().IntSlice("frame", nil, "Frames to print (default: the first frame of every cue)")

	// seed-avatars command - load the avatar catalog from YAML
	seedCmd := &cobra.Command{
		Use:   "seed-avatars",
		Short: "Insert avatar catalog entries from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			db := platform.NewDBConnection(cfg.Database)
			if err := platform.Migrate(db); err != nil {
				return err
			}

			created, err := SeedAvatars(db, data)
			if err != nil {
				return err
			}
			for _, a := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ avatar %d: %s (%d emotions)\n", a.ID, a.Name, len(a.Emotions))
			}
			return nil
		},
	}
	seedCmd.Flags().StringP("file", "f", "avatars.yaml", "Avatar catalog file")

	// render command - re-run the render step for a stored generation
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a stored generation synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetUint("generation")
			if id == 0 {
				return fmt.Errorf("--generation is required")
			}

			db := platform.NewDBConnection(cfg.Database)
			rdb := platform.NewRedisClient(cfg.Redis)
			defer rdb.Close()

			proc, err := app.NewProcessor(cfg, db, rdb)
			if err != nil {
				return err
			}
			return proc.RenderGeneration(cmd.Context(), id)
		},
	}
	renderCmd.Flags().Uint("generation", 0, "Generation ID")

	// token command - issue a development bearer token
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetUint("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if user == 0 {
				return fmt.Errorf("--user is required")
			}

			token, err := auth.GenerateJWT(cfg.Server.JWTSecret, user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().Uint("user", 0, "User ID to put in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(previewCmd, seedCmd, renderCmd, tokenCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
