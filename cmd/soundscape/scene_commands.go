package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundscape/internal/app"
	"soundscape/internal/mixer"
	"soundscape/internal/scene"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "Edit and inspect the active soundscape",
	}

	sceneCmd.AddCommand(newSceneShowCommand(ctx))
	sceneCmd.AddCommand(newSceneAddCommand(ctx))
	sceneCmd.AddCommand(newSceneRemoveCommand(ctx))
	sceneCmd.AddCommand(newSceneClearCommand(ctx))
	sceneCmd.AddCommand(newSceneVolumeCommand(ctx))
	sceneCmd.AddCommand(newSceneWarmthCommand(ctx))
	sceneCmd.AddCommand(newSceneTransportCommand(ctx, "pause", "Pause scene playback", false))
	sceneCmd.AddCommand(newSceneTransportCommand(ctx, "resume", "Resume scene playback", true))

	return sceneCmd
}

func newSceneShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active scene slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				slots := a.Scene.Slots()
				if len(slots) == 0 {
					fmt.Fprintln(out, "Scene is empty")
					return nil
				}

				rows := make([][]string, 0, len(slots))
				for _, slot := range slots {
					rows = append(rows, []string{
						strconv.Itoa(slot.LayerIndex),
						slot.Entry.Key,
						slot.Entry.Category,
						fmt.Sprintf("%.2f", slot.Volume),
						fmt.Sprintf("%.2f", slot.Warmth),
						yesNo(!slot.Entry.IsPlaceholder()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Layer", "Sound", "Category", "Volume", "Warmth", "Playable"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "Playing: %s\n", yesNo(a.Scene.IsPlaying()))
				return nil
			})
		},
	}
}

func newSceneAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <sound>",
		Short: "Add a sound to the scene (replaces the last layer when full)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(cc context.Context, a *app.App) error {
				entry := a.Catalog.FindByKey(args[0])
				if entry == nil {
					return fmt.Errorf("no sound named %q in the catalog (try 'soundscape catalog list')", args[0])
				}
				slot, err := a.Scene.AddSound(cc, entry)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s on layer %d\n", entry.Key, slot.LayerIndex)
				return nil
			})
		},
	}
}

func newSceneRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <layer>",
		Short: "Remove the sound on a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := parseLayer(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				if err := a.Scene.RemoveLayer(layer); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed layer %d\n", layer)
				return nil
			})
		},
	}
}

func newSceneClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every sound from the scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				if err := a.Scene.ClearScene(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Scene cleared")
				return nil
			})
		},
	}
}

func newSceneVolumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "volume <layer> <value>",
		Short: "Set a layer's volume (0.0 to 1.0)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, value, err := parseLayerValue(args)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				if err := a.Scene.SetSlotVolume(layer, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Layer %d volume set to %.2f\n", layer, value)
				return nil
			})
		},
	}
}

func newSceneWarmthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "warmth <layer> <value>",
		Short: "Set a layer's warmth (0.0 bright to 1.0 muffled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, value, err := parseLayerValue(args)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				if err := a.Scene.SetSlotWarmth(layer, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Layer %d warmth set to %.2f\n", layer, value)
				return nil
			})
		},
	}
}

func newSceneTransportCommand(ctx *commandContext, use, short string, playing bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, mixer.NewNopBackend(), true, func(_ context.Context, a *app.App) error {
				if err := a.Scene.SetPlaying(playing); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scene %sd\n", use)
				return nil
			})
		},
	}
}

func parseLayer(arg string) (int, error) {
	layer, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid layer %q", arg)
	}
	if layer < 0 || layer >= scene.MaxSlots {
		return 0, fmt.Errorf("layer must be between 0 and %d", scene.MaxSlots-1)
	}
	return layer, nil
}

func parseLayerValue(args []string) (int, float64, error) {
	layer, err := parseLayer(args[0])
	if err != nil {
		return 0, 0, err
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid value %q", args[1])
	}
	if value < 0 || value > 1 {
		return 0, 0, fmt.Errorf("value must be between 0.0 and 1.0")
	}
	return layer, value, nil
}
