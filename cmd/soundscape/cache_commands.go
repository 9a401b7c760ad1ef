package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"soundscape/internal/assetcache"
	"soundscape/internal/fileutil"
	"soundscape/internal/remote"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the asset cache",
	}

	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show asset cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			imageBytes, err := fileutil.DirSize(cfg.ImagesDir())
			if err != nil {
				return fmt.Errorf("measure image cache: %w", err)
			}
			audioBytes, err := fileutil.DirSize(cfg.AudioDir())
			if err != nil {
				return fmt.Errorf("measure audio cache: %w", err)
			}

			fmt.Fprintf(out, "Cache dir: %s\n", cfg.Paths.CacheDir)
			fmt.Fprintf(out, "Images:    %s\n", humanize.IBytes(uint64(imageBytes)))
			fmt.Fprintf(out, "Audio:     %s\n", humanize.IBytes(uint64(audioBytes)))

			if info, err := os.Stat(cfg.SnapshotPath()); err == nil {
				fmt.Fprintf(out, "Snapshot:  %s (updated %s)\n",
					humanize.IBytes(uint64(info.Size())), humanize.Time(info.ModTime()))
			} else {
				fmt.Fprintln(out, "Snapshot:  none")
			}

			var stat unix.Statfs_t
			if err := unix.Statfs(cfg.Paths.CacheDir, &stat); err == nil {
				free := stat.Bavail * uint64(stat.Bsize)
				fmt.Fprintf(out, "Disk free: %s\n", humanize.IBytes(free))
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached assets and the catalog snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			cache := assetcache.New(cfg.Paths.CacheDir, cfg.SnapshotPath(), remote.New(cfg.Remote), logger)
			if err := cache.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Asset cache cleared; the next startup will re-download the catalog")
			return nil
		},
	}
}
