package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/config"
	"github.com/lox/setforbots/internal/fileutil"
	"github.com/lox/setforbots/internal/game"
	"github.com/lox/setforbots/internal/gameid"
	"github.com/lox/setforbots/internal/spectate"
	"github.com/lox/setforbots/internal/tui"
	"golang.org/x/sync/errgroup"
)

type PlayCmd struct {
	Config   string `kong:"short='c',default='setforbots.hcl',help='HCL configuration file'"`
	LogLevel string `kong:"default='',help='Override log level (debug, info, warn, error)'"`
	LogFile  string `kong:"default='',help='Write logs to this file'"`
	Seed     int64  `kong:"default='0',help='Seed for the deck and bots (0 picks one)'"`
	Headless bool   `kong:"help='Run without the terminal UI, logging events instead'"`
	Spectate string `kong:"default='',help='Serve a spectator feed on this address'"`
	Results  string `kong:"default='',help='Write the final result as JSON to this file'"`
	NoColor  bool   `kong:"help='Disable colors'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := loadConfig(c.Config, c.LogLevel, c.LogFile, c.Seed)
	if err != nil {
		return err
	}
	if c.Spectate != "" {
		cfg.Spectator = &config.SpectatorSettings{Address: c.Spectate}
	}
	if c.Headless && cfg.Humans() {
		return errors.New("headless games cannot have human players")
	}

	logger, closeLog, err := setupLogger(cfg.Log, !c.Headless, c.NoColor)
	if err != nil {
		return err
	}
	defer closeLog()

	gc, err := cfg.GameConfig()
	if err != nil {
		return err
	}

	displays := []game.Display{game.NewLogDisplay(logger, gc.Players)}
	var tuiDisplay *tui.Display
	if !c.Headless {
		tuiDisplay = tui.NewDisplay()
		displays = append(displays, tuiDisplay)
	}

	// The hub needs the game id, so pick it before building the game.
	id := gameid.Generate()
	var hub *spectate.Hub
	if cfg.Spectator != nil {
		hub = spectate.NewHub(spectate.Config{
			Addr:         cfg.Spectator.Address,
			GameID:       id,
			FeatureCount: gc.FeatureCount,
			Players:      gc.Players,
		}, logger, quartz.NewReal())
		displays = append(displays, hub)
	}
	g, err := game.New(gc,
		game.WithID(id),
		game.WithLogger(logger),
		game.WithDisplay(game.NewMultiDisplay(displays...)),
	)
	if err != nil {
		return err
	}

	logger.Info("Game configured",
		"id", g.ID(),
		"players", cfg.Summary(),
		"table", gc.TableSize,
		"features", gc.FeatureCount,
		"seed", g.Seed())

	sigCtx, stop := setupSignalHandler(logger)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var result game.Result
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// Everything else shuts down once the game ends.
		defer cancel()
		res, err := g.Run(ctx)
		result = res
		return err
	})
	if hub != nil {
		eg.Go(func() error { return hub.ListenAndServe(ctx) })
	}
	if tuiDisplay != nil {
		model := tui.NewModel(g, logger, gc.FeatureCount, gc.TableSize, playerInfos(cfg))
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		tuiDisplay.Attach(program)
		eg.Go(func() error {
			_, err := program.Run()
			g.Terminate()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	printResult(os.Stdout, result)
	if c.Results != "" {
		if err := fileutil.WriteJSONAtomic(c.Results, result); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		logger.Info("Wrote results", "file", c.Results)
	}
	return nil
}

func playerInfos(cfg *config.Config) []tui.PlayerInfo {
	infos := make([]tui.PlayerInfo, len(cfg.Players))
	for i, p := range cfg.Players {
		infos[i] = tui.PlayerInfo{Name: p.Name, Human: p.Human, Keys: p.Keys}
	}
	return infos
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	winnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printResult(w io.Writer, res game.Result) {
	fmt.Fprintln(w, titleStyle.Render("Game "+res.ID))
	for _, p := range res.Stats.Players {
		line := fmt.Sprintf("  %-12s %3d  (penalties %d, stale %d)", p.Name, p.Score, p.Penalties, p.Stale)
		if slices.Contains(res.Winners, p.ID) {
			line = winnerStyle.Render(line + "  winner")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d triples, %d reshuffles, %d cards left in the deck",
		res.Stats.TriplesFound, res.Stats.Reshuffles, res.Stats.CardsRemaining)))
}
