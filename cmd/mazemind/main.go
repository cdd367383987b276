package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mazemind/mazemind/internal/config"
	"github.com/mazemind/mazemind/internal/store"
	"github.com/mazemind/mazemind/pkg/agent"
	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/llm/gemini"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

var (
	ticks       int
	tickSeconds int
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "mazemind",
	Short: "Cognitive core for an autonomous maze character",
	Long: `mazemind runs the memory/retrieval/reflection/planning/decision
pipeline of a simulated maze survivor, either against the Gemini API or on
pure heuristics when no API key is configured.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo simulation in a small built-in maze",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var model llm.LanguageModel
		var embedder llm.Embedder
		if cfg.GeminiAPIKey != "" {
			client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
			if err != nil {
				return fmt.Errorf("create gemini client: %w", err)
			}
			defer client.Close()
			model = llm.Limited(client, 1, 30*time.Second)
			embedder = client
			logger.Info().Msg("running with gemini capabilities")
		} else {
			logger.Info().Msg("no GEMINI_API_KEY set, running on heuristics")
		}

		maze, items := demoMaze()
		survival := world.NewSurvivalMeter()

		a := agent.New(cfg.AgentConfig(), model, embedder, survival, maze, items,
			agent.WithLogger(logger))
		a.Perceive("I woke up at the maze entrance with no idea how I got here", 8)

		simTime := time.Now()
		quantum := time.Duration(tickSeconds) * time.Second
		for i := 0; i < ticks; i++ {
			select {
			case <-ctx.Done():
				logger.Info().Msg("interrupted")
				return saveArchive(cfg.ArchivePath, a.Stream())
			default:
			}

			degrade(survival, i)
			d := a.Tick(ctx, simTime)
			a.Apply(d)
			consumeAt(a, survival, items)

			logger.Info().
				Int("tick", i).
				Str("action", string(d.Action)).
				Str("direction", string(d.Direction)).
				Float64("confidence", d.Confidence).
				Str("pos", fmt.Sprintf("(%d,%d)", a.Position().X, a.Position().Y)).
				Msg(d.Reasoning)

			if a.Position() == maze.Exit() {
				logger.Info().Int("ticks", i+1).Msg("reached the exit")
				break
			}
			simTime = simTime.Add(quantum)
		}

		stats := a.Stream().GetStatistics()
		fmt.Printf("memories: %d (embedded %d, mean importance %.1f)\n",
			stats.Count, stats.Embedded, stats.MeanImportance)
		fmt.Printf("reflections: %d across %d levels\n",
			a.Reflector().Tree().Count(), a.Reflector().Tree().MaxDepth())

		return saveArchive(cfg.ArchivePath, a.Stream())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Export the archived memory stream to JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		stream, err := loadArchive(cfg.ArchivePath, cfg.MemoryCapacity)
		if err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()

		if err := stream.ExportJSON(f); err != nil {
			return err
		}
		fmt.Printf("exported %d memories to %s\n", stream.Len(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a JSON memory export into the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()

		stream := memory.NewStream(cfg.MemoryCapacity)
		if err := stream.ImportJSON(f); err != nil {
			return err
		}
		if err := saveArchive(cfg.ArchivePath, stream); err != nil {
			return err
		}
		fmt.Printf("imported %d memories into %s\n", stream.Len(), cfg.ArchivePath)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for the archived memory stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		stream, err := loadArchive(cfg.ArchivePath, cfg.MemoryCapacity)
		if err != nil {
			return err
		}

		stats := stream.GetStatistics()
		fmt.Printf("Archive: %s\n", cfg.ArchivePath)
		fmt.Printf("Memories: %d\n", stats.Count)
		for kind, n := range stats.ByKind {
			fmt.Printf("  %s: %d\n", kind, n)
		}
		fmt.Printf("Embedded: %d\n", stats.Embedded)
		fmt.Printf("Mean importance: %.2f\n", stats.MeanImportance)
		return nil
	},
}

// demoMaze builds a small 8x8 maze with a few corridors and survival items.
func demoMaze() (*world.GridMaze, *world.ItemMap) {
	maze := world.NewGridMaze(8, 8, world.Point{X: 0, Y: 0}, world.Point{X: 7, Y: 7})

	// A couple of internal walls so pathing has something to route around.
	maze.SetWalls(world.Point{X: 3, Y: 0}, world.Walls{East: true})
	maze.SetWalls(world.Point{X: 4, Y: 0}, world.Walls{West: true})
	maze.SetWalls(world.Point{X: 3, Y: 1}, world.Walls{East: true})
	maze.SetWalls(world.Point{X: 4, Y: 1}, world.Walls{West: true})
	maze.SetWalls(world.Point{X: 5, Y: 4}, world.Walls{North: true})
	maze.SetWalls(world.Point{X: 5, Y: 5}, world.Walls{South: true})

	items := world.NewItemMap()
	items.Add(world.Item{Kind: "food", Pos: world.Point{X: 2, Y: 3}})
	items.Add(world.Item{Kind: "food", Pos: world.Point{X: 6, Y: 1}})
	items.Add(world.Item{Kind: "water", Pos: world.Point{X: 1, Y: 5}})
	items.Add(world.Item{Kind: "water", Pos: world.Point{X: 5, Y: 6}})
	return maze, items
}

// degrade drains survival resources a little each tick.
func degrade(s *world.SurvivalMeter, tick int) {
	snap := s.Snapshot()
	snap.Hunger = max(0, snap.Hunger-0.8)
	snap.Thirst = max(0, snap.Thirst-1.0)
	snap.Energy = max(0, snap.Energy-0.5)
	if snap.Hunger < 30 || snap.Thirst < 30 {
		snap.Stress = min(100, snap.Stress+2)
	}
	s.Set(snap)
}

// consumeAt consumes any item on the agent's tile and records the event.
func consumeAt(a *agent.Agent, s *world.SurvivalMeter, items *world.ItemMap) {
	pos := a.Position()
	for _, it := range items.Nearby(pos, 0) {
		if !items.Remove(it.Kind, pos) {
			continue
		}
		snap := s.Snapshot()
		switch it.Kind {
		case "food":
			snap.Hunger = min(100, snap.Hunger+40)
		case "water":
			snap.Thirst = min(100, snap.Thirst+40)
		}
		s.Set(snap)
		a.Perceive(fmt.Sprintf("I found %s here and consumed it", it.Kind), 6, "resource", it.Kind)
	}
}

func saveArchive(path string, stream *memory.Stream) error {
	archive, err := store.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	if err := archive.Init(ctx); err != nil {
		return err
	}
	return archive.Save(ctx, stream)
}

func loadArchive(path string, capacity int) (*memory.Stream, error) {
	archive, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	ctx := context.Background()
	if err := archive.Init(ctx); err != nil {
		return nil, err
	}
	records, err := archive.Load(ctx)
	if err != nil {
		return nil, err
	}
	stream := memory.NewStream(capacity)
	stream.Restore(records)
	return stream, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

func init() {
	runCmd.Flags().IntVar(&ticks, "ticks", 200, "Maximum simulation ticks")
	runCmd.Flags().IntVar(&tickSeconds, "tick-seconds", 30, "Simulated seconds per tick")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
