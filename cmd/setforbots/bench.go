package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/setforbots/internal/fileutil"
	"github.com/lox/setforbots/internal/game"
	"github.com/lox/setforbots/internal/randutil"
	"github.com/lox/setforbots/internal/statistics"
	"golang.org/x/sync/errgroup"
)

type BenchCmd struct {
	Config   string `kong:"short='c',default='setforbots.hcl',help='HCL configuration file'"`
	Games    int    `kong:"short='n',default='100',help='Number of games to play'"`
	Parallel int    `kong:"default='0',help='Games to run at once (0 uses every CPU)'"`
	Seed     int64  `kong:"default='0',help='Base seed; game i uses seed+i'"`
	LogLevel string `kong:"default='warn',help='Log level'"`
	Results  string `kong:"default='',help='Write the summary as JSON to this file'"`
	NoColor  bool   `kong:"help='Disable colors'"`
}

// PlayerReport is one player's line in a bench summary.
type PlayerReport struct {
	Name      string  `json:"name"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stdDev"`
	CILow     float64 `json:"ciLow"`
	CIHigh    float64 `json:"ciHigh"`
	Median    float64 `json:"median"`
	WinRate   float64 `json:"winRate"`
	Penalties int     `json:"penalties"`
}

// BenchReport summarises a batch of games.
type BenchReport struct {
	Games        int            `json:"games"`
	Seed         int64          `json:"seed"`
	Duration     string         `json:"duration"`
	TriplesFound int            `json:"triplesFound"`
	Reshuffles   int            `json:"reshuffles"`
	Submissions  int            `json:"submissions"`
	Players      []PlayerReport `json:"players"`
}

func (c *BenchCmd) Run() error {
	if c.Games < 1 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	cfg, err := loadConfig(c.Config, c.LogLevel, "", c.Seed)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg.Log, false, c.NoColor)
	if err != nil {
		return err
	}
	defer closeLog()

	gc, err := cfg.GameConfig()
	if err != nil {
		return err
	}
	for i := range gc.Players {
		if gc.Players[i].Human {
			logger.Info("Replacing human with an automated player", "player", gc.Players[i].Name)
			gc.Players[i].Human = false
		}
	}
	// Nobody is watching, so there is no reason to hold the final board.
	gc.EndGamePause = 0
	base := randutil.Seed(gc.Seed)

	parallel := c.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	ctx, stop := setupSignalHandler(logger)
	defer stop()

	logger.Info("Starting bench", "games", c.Games, "parallel", parallel, "seed", base, "players", cfg.Summary())
	start := time.Now()

	results, err := runBatch(ctx, gc, base, c.Games, parallel, logger)
	if err != nil {
		return err
	}

	names := make([]string, len(gc.Players))
	for i, p := range gc.Players {
		names[i] = p.Name
	}
	batch := statistics.NewBatch(names)
	for _, res := range results {
		if err := batch.Add(res); err != nil {
			return err
		}
	}
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("inconsistent results: %w", err)
	}

	report := newBenchReport(batch, base, time.Since(start))
	printReport(os.Stdout, report)
	if c.Results != "" {
		if err := fileutil.WriteJSONAtomic(c.Results, report); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		logger.Info("Wrote results", "file", c.Results)
	}
	return nil
}

// runBatch plays games with seeds base, base+1, ... and returns the results
// in seed order. A cancelled context stops the batch with an error.
func runBatch(ctx context.Context, gc game.Config, base int64, games, parallel int, logger *log.Logger) ([]game.Result, error) {
	results := make([]game.Result, games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range games {
		g.Go(func() error {
			cfg := gc
			cfg.Seed = base + int64(i)
			gm, err := game.New(cfg, game.WithLogger(logger))
			if err != nil {
				return err
			}
			res, err := gm.Run(ctx)
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return fmt.Errorf("bench interrupted: %w", ctx.Err())
			}
			results[i] = res
			logger.Debug("Game finished", "game", i, "id", res.ID, "winners", res.Winners)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newBenchReport(b *statistics.Batch, seed int64, elapsed time.Duration) BenchReport {
	r := BenchReport{
		Games:        b.Games,
		Seed:         seed,
		Duration:     elapsed.Round(time.Millisecond).String(),
		TriplesFound: b.TriplesFound,
		Reshuffles:   b.Reshuffles,
		Submissions:  b.Submissions,
		Players:      make([]PlayerReport, len(b.Players)),
	}
	for i := range b.Players {
		s := &b.Players[i]
		lo, hi := s.ConfidenceInterval95()
		r.Players[i] = PlayerReport{
			Name:      b.Names[i],
			Mean:      s.Mean(),
			StdDev:    s.StdDev(),
			CILow:     lo,
			CIHigh:    hi,
			Median:    s.Median(),
			WinRate:   s.WinRate(),
			Penalties: s.Penalties,
		}
	}
	return r
}

func printReport(w io.Writer, r BenchReport) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d games in %s (seed %d)", r.Games, r.Duration, r.Seed)))
	fmt.Fprintf(w, "  %-12s %8s %17s %7s %6s %9s\n", "player", "mean", "95% CI", "median", "wins", "penalties")
	for _, p := range r.Players {
		fmt.Fprintf(w, "  %-12s %8.2f  [%6.2f, %6.2f] %7.1f %5.1f%% %9d\n",
			p.Name, p.Mean, p.CILow, p.CIHigh, p.Median, p.WinRate*100, p.Penalties)
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d triples, %d reshuffles, %d submissions",
		r.TriplesFound, r.Reshuffles, r.Submissions)))
}
