package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/behavior"
	"github.com/JakubekWeg/wc2-sub000/internal/config"
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/data"
	feed "github.com/JakubekWeg/wc2-sub000/internal/net"
	"github.com/JakubekWeg/wc2-sub000/internal/persist"
	"github.com/JakubekWeg/wc2-sub000/internal/scripting"
	"github.com/JakubekWeg/wc2-sub000/internal/system"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(mapName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              wc2sim  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      tile RTS simulation core · Go        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mmap:\033[0m %s\n\n", mapName)
}

func printSection(title string) {
	lineLen := max(3, 46-len(title)-1)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(3, 42-len(label)-len(numStr))
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/wc2sim.toml"
	if p := os.Getenv("WC2_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load data
	protos, err := data.LoadPrototypes(cfg.Data.Prototypes)
	if err != nil {
		return fmt.Errorf("prototypes: %w", err)
	}
	m, err := data.LoadMap(cfg.Data.Map)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}

	printBanner(m.Name)
	printSection("Data")
	printStat("unit types", len(protos.Units))
	printStat("projectile types", len(protos.Projectiles))
	printStat("map units", len(m.Units))
	printStat("blocked tiles", len(m.Blocked()))
	fmt.Println()

	// 4. Build the world
	bus := event.NewBus()
	opts := behavior.Options()
	opts.ChunkSize = cfg.Sim.ChunkSize
	opts.PathBudget = cfg.Sim.PathBudget
	opts.Bus = bus

	if cfg.Data.Scripts != "" {
		engine, err := scripting.NewEngine(cfg.Data.Scripts, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		opts.Hooks = engine
		printOK("Lua hooks loaded from " + cfg.Data.Scripts)
	}

	ws, err := world.New(log, opts, protos, m)
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}

	// 5. Optional PostgreSQL save slots; resume or populate
	printSection("Persistence")
	var (
		repo *persist.SaveRepo
		slot uuid.UUID
	)
	resumed := false
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		repo = persist.NewSaveRepo(db)
		if slot, err = openSlot(ctx, repo, cfg.Database.Slot, m.Name); err != nil {
			return err
		}
		printOK("save slot " + slot.String())

		if cfg.Database.Resume {
			snap, err := repo.LatestSnapshot(ctx, slot)
			switch {
			case errors.Is(err, persist.ErrNoSnapshot):
				log.Info("no snapshot to resume, starting fresh", zap.String("slot", slot.String()))
			case err != nil:
				return err
			default:
				if err := ws.Load(snap); err != nil {
					return fmt.Errorf("resume: %w", err)
				}
				resumed = true
				printOK(fmt.Sprintf("resumed at tick %d", snap.Tick))
			}
		}
	} else {
		printOK("database disabled, autosave off")
	}
	if !resumed {
		if err := ws.Populate(m); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
	}
	printStat("entities", ws.World().Count())
	fmt.Println()

	// 6. Feed server
	var feedServer *feed.FeedServer
	if cfg.Feed.Enabled {
		feedServer, err = feed.NewFeedServer(cfg.Feed.BindAddress, 16, log)
		if err != nil {
			return fmt.Errorf("feed: %w", err)
		}
	}

	// 7. Create systems and register with runner
	queue := event.NewQueue[*world.State]()
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(queue, ws, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewAISystem(ws))
	runner.Register(system.NewProjectileSystem(ws))
	system.NewCombatSystem(ws, bus, log)
	if feedServer != nil {
		runner.Register(system.NewOutputSystem(ws, feedServer, cfg.Feed, log))
	}
	runner.Register(system.NewDigestSystem(ws, log, cfg.Sim.DigestInterval))
	var autosave *system.AutosaveSystem
	if repo != nil {
		autosave = system.NewAutosaveSystem(ws, repo, slot, log, cfg.Database.AutosaveTicks)
		runner.Register(autosave)
	}
	loop := world.NewLoop(ws, runner, queue, log)

	// 8. Run until a shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("Ready")
	if feedServer != nil {
		printReady("feed on ws://" + feedServer.Addr().String() + "/feed")
	}
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx, cfg.Sim.TickRate) })
	if feedServer != nil {
		g.Go(feedServer.Serve)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return feedServer.Shutdown(shutdownCtx)
		})
	}
	err = g.Wait()

	if autosave != nil {
		if serr := autosave.SaveNow(); serr != nil {
			log.Error("final save failed", zap.Error(serr))
		}
	}
	log.Info("simulation stopped", zap.Uint64("tick", ws.Tick()))
	return err
}

// openSlot resolves the configured slot, creating one when none is set.
func openSlot(ctx context.Context, repo *persist.SaveRepo, configured, mapName string) (uuid.UUID, error) {
	if configured == "" {
		name := fmt.Sprintf("%s %s", mapName, time.Now().Format("2006-01-02 15:04"))
		id, err := repo.CreateSlot(ctx, name, mapName)
		if err != nil {
			return uuid.Nil, fmt.Errorf("create slot: %w", err)
		}
		return id, nil
	}
	id, err := uuid.Parse(configured)
	if err != nil {
		return uuid.Nil, fmt.Errorf("database.slot: %w", err)
	}
	if err := repo.EnsureSlot(ctx, id, mapName, mapName); err != nil {
		return uuid.Nil, fmt.Errorf("ensure slot: %w", err)
	}
	return id, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
