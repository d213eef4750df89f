package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shorebound/server/internal/config"
	"github.com/shorebound/server/internal/core/event"
	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/handler"
	gonet "github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/persist"
	"github.com/shorebound/server/internal/scripting"
	"github.com/shorebound/server/internal/system"
	"github.com/shorebound/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          Shorebound  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      孤島求生 · Go 模擬伺服器             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("SHOREBOUND_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")
	fmt.Println()

	// 4. Create repositories
	playerRepo := persist.NewPlayerRepo(db)
	worldRepo := persist.NewWorldRepo(db)
	walRepo := persist.NewWALRepo(db)

	// 5. Load static data tables
	printSection("資料載入")

	itemTable, err := data.LoadItemTable()
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("道具模板", itemTable.Count())

	speciesTable, err := data.LoadSpeciesTable()
	if err != nil {
		return fmt.Errorf("load species table: %w", err)
	}
	printStat("物種", speciesTable.Count())

	armorTable, err := data.LoadArmorTable()
	if err != nil {
		return fmt.Errorf("load armor table: %w", err)
	}
	printStat("護甲", armorTable.Count())

	plantTable, err := data.LoadPlantTable()
	if err != nil {
		return fmt.Errorf("load plant table: %w", err)
	}
	printStat("植物", plantTable.Count())

	luaEngine, err := scripting.NewEngine(cfg.Game.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 6. Build the world: load from the database, or seed a fresh one
	printSection("世界")

	worldState := world.NewState()
	now := time.Now()

	meta, err := worldRepo.LoadMeta(ctx)
	if err != nil {
		return fmt.Errorf("load world meta: %w", err)
	}
	seed := cfg.Game.WorldSeed
	if meta != nil {
		seed = meta.Seed
	}

	// Terrain is pure function of the seed; regenerate instead of storing.
	system.GenerateTerrain(worldState, seed)
	printOK(fmt.Sprintf("地形生成完成 (seed: %d)", seed))

	seeder := system.NewSeeder(worldState, speciesTable, plantTable, seed, log)

	if meta != nil {
		worldState.Season = meta.Season
		worldState.SeasonProgress = meta.SeasonProgress
		if err := worldRepo.LoadWorld(ctx, worldState); err != nil {
			return fmt.Errorf("load world: %w", err)
		}
		players, err := playerRepo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		for _, p := range players {
			p.IsOnline = false
			worldState.AddPlayer(p)
		}
		markers, err := playerRepo.LoadDeathMarkers(ctx)
		if err != nil {
			return fmt.Errorf("load death markers: %w", err)
		}
		for owner, m := range markers {
			worldState.DeathMarkers[owner] = m
		}
		worldState.BumpNextID(meta.NextEntityID)
		printStat("玩家", len(players))
	}

	// Idempotent: a loaded world short-circuits on non-empty tables.
	seeder.SeedEnvironment(now)
	printStat("樹木", len(worldState.Trees))
	printStat("礦石", len(worldState.Stones))
	printStat("野生動物", len(worldState.Animals))
	fmt.Println()

	// 7. Wire systems
	rng := rand.New(rand.NewSource(now.UnixNano()))
	bus := event.NewBus()

	combat := system.NewCombat(worldState, itemTable, speciesTable, armorTable,
		plantTable, bus, luaEngine, log, rng)
	combat.Rates = cfg.Rates
	ai := system.NewAI(worldState, speciesTable, armorTable, itemTable, combat, log, rng)
	respawn := system.NewRespawn(worldState, plantTable, log)

	scheduler := system.NewSchedulerSystem(worldState, ai, combat, respawn, log)

	ai.Start(now)
	respawn.CheckResourceRespawns(now)
	if meta != nil {
		scheduler.RebookTimers(now)
	}

	persistence := system.NewPersistence(worldState, playerRepo, worldRepo,
		walRepo, seed, cfg.Game.AutosaveEvery, bus, log)

	// 8. Command handlers and network gateway
	deps := &handler.Deps{
		Config:    cfg,
		Log:       log,
		State:     worldState,
		Combat:    combat,
		AI:        ai,
		Players:   playerRepo,
		Items:     itemTable,
		Species:   speciesTable,
		Plants:    plantTable,
		Armor:     armorTable,
		Scripting: luaEngine,
	}
	registry := handler.NewRegistry(log)
	handler.RegisterAll(registry, deps)

	netServer := gonet.NewServer(cfg.Network, log)
	go netServer.Serve()

	gateway := handler.NewGateway(netServer, registry, deps,
		cfg.Network.MaxCommandsPerTick, log)

	runner := coresys.NewRunner()
	runner.Register(gateway)
	runner.Register(system.NewEventDispatch(bus))
	runner.Register(system.NewSeasonSystem(worldState, cfg.Game.SeasonLength, log))
	runner.Register(system.NewEffectSystem(combat))
	runner.Register(scheduler)
	runner.Register(handler.NewOutput(deps))
	runner.Register(persistence)

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	// 高頻輸入輪詢：tick 之間只跑 Phase 0，
	// 讓指令處理延遲從 0~200ms 降至 0~5ms。
	inputTicker := time.NewTicker(5 * time.Millisecond)
	defer inputTicker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case <-inputTicker.C:
			runner.TickPhase(coresys.PhaseInput, 0)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			persistence.SaveNow()
			gateway.CloseAll()
			netServer.Shutdown()
			log.Info("伺服器已停止")
			return nil
		}
	}
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
