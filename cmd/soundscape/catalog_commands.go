package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundscape/internal/app"
	"soundscape/internal/catalog"
	"soundscape/internal/mixer"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and synchronize the sound catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRefreshCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var categoryFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog sounds grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				groups := a.Catalog.GroupByCategory()
				filter := strings.TrimSpace(categoryFilter)

				shown := 0
				for _, group := range groups {
					if filter != "" && !strings.EqualFold(group.Name, filter) {
						continue
					}
					shown += len(group.Entries)
					fmt.Fprintf(out, "%s (%d)\n", group.Name, len(group.Entries))
					printEntries(cmd, group.Entries)
				}
				if shown == 0 {
					if filter != "" {
						fmt.Fprintf(out, "No sounds in category %q\n", filter)
					} else {
						fmt.Fprintln(out, "Catalog is empty")
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFilter, "category", "", "Only list sounds in this category")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []*catalog.Entry) {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		for _, e := range entries {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.Key, e.Category, yesNo(e.Premium), yesNo(e.LocalAudioPath != ""))
		}
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		added := ""
		if !e.CreatedAt.IsZero() {
			added = humanize.Time(e.CreatedAt)
		}
		rows = append(rows, []string{e.Key, yesNo(e.Premium), yesNo(e.LocalAudioPath != ""), added})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Sound", "Premium", "Cached", "Added"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func newCatalogRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a full catalog refresh from the remote source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), false, func(cc context.Context, a *app.App) error {
				if err := a.Catalog.Refresh(cc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog refreshed: %d sounds\n", a.Catalog.Count())
				return nil
			})
		},
	}
}
