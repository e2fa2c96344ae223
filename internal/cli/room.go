package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/fleet"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room and match commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomSingleCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomPlaceCmd())
	cmd.AddCommand(newRoomAttackCmd())
	cmd.AddCommand(newRoomLeaveCmd())

	return cmd
}

func roomPath(id, suffix string) (string, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", fmt.Errorf("invalid room id: %s", id)
	}
	return "/api/v1/rooms/" + id + suffix, nil
}

func newRoomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Open a room and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Post(cmd.Context(), "/api/v1/rooms", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomSingleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "single",
		Short: "Start a match against a bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Post(cmd.Context(), "/api/v1/rooms/single", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a room you are seated in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := roomPath(args[0], "")
			if err != nil {
				return err
			}

			var result Room
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Take the second seat in an open room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := roomPath(args[0], "/join")
			if err != nil {
				return err
			}

			var result Room
			if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomPlaceCmd() *cobra.Command {
	var file string
	var randomLayout bool

	cmd := &cobra.Command{
		Use:   "place <id>",
		Short: "Submit your fleet",
		Long: `Submit your fleet from a JSON file holding a list of ships, e.g.

  [{"type":"huge","position":{"x":0,"y":0},"direction":false}, ...]

or let the CLI generate a legal layout with --random.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := roomPath(args[0], "/ships")
			if err != nil {
				return err
			}

			var ships []model.ShipSpec
			switch {
			case randomLayout:
				ships = fleet.Generate(random.New())
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &ships); err != nil {
					return fmt.Errorf("invalid fleet file: %w", err)
				}
			default:
				return fmt.Errorf("one of --file or --random is required")
			}

			var result Room
			if err := client.Post(cmd.Context(), path, map[string]any{"ships": ships}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with the fleet layout")
	cmd.Flags().BoolVar(&randomLayout, "random", false, "Generate a random legal layout")
	cmd.MarkFlagsMutuallyExclusive("file", "random")

	return cmd
}

func newRoomAttackCmd() *cobra.Command {
	var randomTarget bool

	cmd := &cobra.Command{
		Use:   "attack <id> [x y]",
		Short: "Fire at the opponent's board",
		Args: func(cmd *cobra.Command, args []string) error {
			if randomTarget {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Shot

			if randomTarget {
				path, err := roomPath(args[0], "/attack/random")
				if err != nil {
					return err
				}
				if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
					return err
				}
			} else {
				path, err := roomPath(args[0], "/attack")
				if err != nil {
					return err
				}
				x, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid x: %s", args[1])
				}
				y, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid y: %s", args[2])
				}
				if err := client.Post(cmd.Context(), path, map[string]int{"x": x, "y": y}, &result); err != nil {
					return err
				}
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&randomTarget, "random", false, "Let the server pick an untouched cell")

	return cmd
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a room, forfeiting a started match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := roomPath(args[0], "/leave")
			if err != nil {
				return err
			}

			if err := client.Post(cmd.Context(), path, nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left room " + args[0])
			return nil
		},
	}
}
