package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"soundscape/internal/app"
	"soundscape/internal/mixer"
)

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite sounds",
	}

	favoritesCmd.AddCommand(newFavoritesListCommand(ctx))
	favoritesCmd.AddCommand(newFavoritesAddCommand(ctx))
	favoritesCmd.AddCommand(newFavoritesRemoveCommand(ctx))

	return favoritesCmd
}

func newFavoritesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite sounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), false, func(cc context.Context, a *app.App) error {
				keys, err := a.Persist.Favorites(cc)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(keys) == 0 {
					fmt.Fprintln(out, "No favorites yet")
					return nil
				}
				for _, key := range keys {
					fmt.Fprintln(out, key)
				}
				return nil
			})
		},
	}
}

func newFavoritesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <sound>",
		Short: "Mark a sound as a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), false, func(cc context.Context, a *app.App) error {
				if err := a.Persist.AddFavorite(cc, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", args[0])
				return nil
			})
		},
	}
}

func newFavoritesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sound>",
		Short: "Remove a sound from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), false, func(cc context.Context, a *app.App) error {
				if err := a.Persist.RemoveFavorite(cc, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", args[0])
				return nil
			})
		},
	}
}
