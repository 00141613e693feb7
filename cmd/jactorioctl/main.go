// Command jactorioctl drives a conveyor-belt world from the terminal: lay
// belts, remove them, step the scheduler, and inspect a tile's state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaihysc/Jactorio-sub000/server"
	"github.com/jaihysc/Jactorio-sub000/server/itemset"
	"github.com/jaihysc/Jactorio-sub000/server/proto"
	"github.com/jaihysc/Jactorio-sub000/server/topology"
	"github.com/jaihysc/Jactorio-sub000/server/world"
)

var (
	configPath string
	engine     *server.Engine
	registry   = itemset.NewRegistry()
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jactorioctl",
		Short: "Drive a conveyor-belt simulation engine from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			uc, err := server.LoadUserConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			conf, err := uc.Config(nil)
			if err != nil {
				return fmt.Errorf("build config: %w", err)
			}
			conf.ChunkPreload = []server.ChunkPosConfig{{X: 0, Y: 0}}
			e, err := conf.New()
			if err != nil {
				return fmt.Errorf("start engine: %w", err)
			}
			engine = e
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "jactorio.toml", "path to the engine's TOML config file")

	root.AddCommand(tickCmd(), placeCmd(), removeCmd(), inspectCmd())
	return root
}

func tickCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance the simulation by one or more ticks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			for i := 0; i < count; i++ {
				engine.Step()
			}
			fmt.Printf("advanced %d tick(s), now at tick %d\n", count, engine.Sched.Tick)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of ticks to advance")
	return cmd
}

func coordFlags(cmd *cobra.Command) (*int32, *int32) {
	x := cmd.Flags().Int32("x", 0, "tile x coordinate")
	y := cmd.Flags().Int32("y", 0, "tile y coordinate")
	return x, y
}

func directionFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("dir", "right", "belt orientation: up, right, down or left")
}

func parseDirection(s string) (world.Direction, error) {
	switch s {
	case "up":
		return world.Up, nil
	case "right":
		return world.Right, nil
	case "down":
		return world.Down, nil
	case "left":
		return world.Left, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

func placeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place a conveyor belt tile.",
	}
	x, y := coordFlags(cmd)
	dir := directionFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		d, err := parseDirection(*dir)
		if err != nil {
			return err
		}
		p, ok := registry.Lookup(1)
		if !ok {
			return fmt.Errorf("belt prototype not registered")
		}
		belt, ok := p.(proto.Conveyor)
		if !ok {
			return fmt.Errorf("registered prototype 1 is not a conveyor")
		}
		coord := world.Coord{X: *x, Y: *y}
		if err := ensureChunk(coord); err != nil {
			return err
		}
		if err := topology.Build(engine.World, coord, d, belt); err != nil {
			return err
		}
		fmt.Printf("placed belt at (%d, %d) facing %s\n", *x, *y, d)
		return nil
	}
	return cmd
}

func removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove whatever conveyor occupies a tile.",
	}
	x, y := coordFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		coord := world.Coord{X: *x, Y: *y}
		if err := topology.Remove(engine.World, coord); err != nil {
			return err
		}
		fmt.Printf("removed conveyor at (%d, %d)\n", *x, *y)
		return nil
	}
	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the entity-layer state of a tile.",
	}
	x, y := coordFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		coord := world.Coord{X: *x, Y: *y}
		cell, ok := engine.World.Tile(coord)
		if !ok {
			fmt.Printf("(%d, %d): chunk not loaded\n", *x, *y)
			return nil
		}
		layer := cell.Layer(world.LayerEntity)
		if layer.Prototype == nil {
			fmt.Printf("(%d, %d): empty\n", *x, *y)
			return nil
		}
		data, ok := topology.Data(engine.World, coord)
		if !ok {
			fmt.Printf("(%d, %d): occupied, no conveyor data\n", *x, *y)
			return nil
		}
		seg := data.Structure
		fmt.Printf("(%d, %d): struct_index=%d direction=%s termination=%s length=%d left_items=%d right_items=%d has_target=%v\n",
			*x, *y, data.StructIndex, seg.Direction, seg.Termination, seg.Length, seg.Left.Len(), seg.Right.Len(), seg.Target != nil)
		return nil
	}
	return cmd
}

func ensureChunk(coord world.Coord) error {
	if _, ok := engine.World.Chunk(coord.Chunk()); ok {
		return nil
	}
	_, err := engine.World.EmplaceChunk(coord.Chunk())
	return err
}
