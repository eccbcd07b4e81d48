package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/gameid"
	"github.com/lox/setforbots/internal/randutil"
	"github.com/lox/setforbots/internal/rules"
)

// ErrNotStarted is returned by Wait on a game that was never started.
var ErrNotStarted = errors.New("game not started")

// Option configures a Game during creation.
type Option func(*options)

type options struct {
	clock   quartz.Clock
	logger  *log.Logger
	display Display
	oracle  Oracle
	cards   []deck.Card // If set, replaces the full deck
	inputs  map[int]InputSource
	seed    int64
	id      string
}

// WithClock sets the clock used for every timer. Defaults to the real clock.
func WithClock(clock quartz.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDisplay sets the display. Use NewMultiDisplay to combine several.
func WithDisplay(display Display) Option {
	return func(o *options) { o.display = display }
}

// WithOracle replaces the matching rules.
func WithOracle(oracle Oracle) Option {
	return func(o *options) { o.oracle = oracle }
}

// WithDeck starts the game with only the given cards in the deck.
func WithDeck(cards ...deck.Card) Option {
	return func(o *options) { o.cards = append([]deck.Card{}, cards...) }
}

// WithID names the game. Defaults to a fresh gameid.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithInput overrides the input source of one player.
func WithInput(player int, in InputSource) Option {
	return func(o *options) {
		if o.inputs == nil {
			o.inputs = make(map[int]InputSource)
		}
		o.inputs[player] = in
	}
}

func (o *options) newDeck(cfg Config) *deck.Deck {
	rng := randutil.Stream(o.seed, 0)
	if o.cards != nil {
		return deck.NewWithCards(o.cards, rng)
	}
	return deck.New(cfg.FeatureCount, rng)
}

// inputFor returns the input source of a player: an override, a keyboard
// style ExternalInput for humans, or a RandomInput for automated players.
func (o *options) inputFor(id int, pc PlayerConfig, cfg Config) InputSource {
	if in, ok := o.inputs[id]; ok {
		return in
	}
	if pc.Human {
		return NewExternalInput()
	}
	return NewRandomInput(randutil.Stream(o.seed, id+1), cfg.BotDelay, o.clock)
}

func (o *options) validateDeck(cfg Config) error {
	if o.cards == nil {
		return nil
	}
	seen := make(map[deck.Card]bool, len(o.cards))
	for _, c := range o.cards {
		if c < 0 || int(c) >= cfg.DeckSize() {
			return fmt.Errorf("card %d outside deck of %d cards", c, cfg.DeckSize())
		}
		if seen[c] {
			return fmt.Errorf("card %d appears twice", c)
		}
		seen[c] = true
	}
	return nil
}

// Game is the process-level handle: it starts the arbiter, which starts the
// players, and it stops everything on Terminate.
type Game struct {
	cfg     Config
	arbiter *Arbiter
	logger  *log.Logger
	id      string
	seed    int64

	mu         sync.Mutex
	started    bool
	terminated bool
	cancel     context.CancelFunc
	done       chan struct{}
	result     Result
}

// New validates cfg and builds a game. No goroutine runs until Start.
func New(cfg Config, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}

	o := &options{
		clock:   quartz.NewReal(),
		logger:  log.Default(),
		display: NullDisplay{},
		oracle:  rules.New(cfg.FeatureCount),
		seed:    randutil.Seed(cfg.Seed),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validateDeck(cfg); err != nil {
		return nil, fmt.Errorf("invalid deck: %w", err)
	}
	for id := range o.inputs {
		if id < 0 || id >= len(cfg.Players) {
			return nil, fmt.Errorf("input override for unknown player %d", id)
		}
	}
	if o.id == "" {
		o.id = gameid.Generate()
	}
	o.logger = o.logger.With("game", o.id)

	return &Game{
		cfg:     cfg,
		arbiter: newArbiter(cfg, o),
		logger:  o.logger.WithPrefix("game"),
		id:      o.id,
		seed:    o.seed,
		done:    make(chan struct{}),
	}, nil
}

// Config returns the game's configuration.
func (g *Game) Config() Config { return g.cfg }

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

// Seed returns the seed the game's randomness derives from.
func (g *Game) Seed() int64 { return g.seed }

// Players returns the player actors in id order.
func (g *Game) Players() []*Player { return slices.Clone(g.arbiter.players) }

// State returns the arbiter's current phase.
func (g *Game) State() State { return g.arbiter.State() }

// Start launches the arbiter goroutine. Calling it again does nothing.
func (g *Game) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.started = true

	ctx, g.cancel = context.WithCancel(ctx)
	if g.terminated {
		g.cancel()
	}

	g.logger.Info("Starting game", "seed", g.seed, "players", len(g.cfg.Players))
	go func() {
		defer close(g.done)
		g.result = g.arbiter.run(ctx)
		g.result.ID = g.id
	}()
}

// Terminate stops the game. It is idempotent and may be called from any
// goroutine, before or after Start.
func (g *Game) Terminate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.terminated = true
	if g.cancel != nil {
		g.cancel()
	}
}

// Done is closed once the game has ended and every goroutine has exited.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the game ends and returns its result.
func (g *Game) Wait() (Result, error) {
	g.mu.Lock()
	started := g.started
	g.mu.Unlock()
	if !started {
		return Result{}, ErrNotStarted
	}
	<-g.done
	return g.result, nil
}

// Run starts the game and blocks until it ends.
func (g *Game) Run(ctx context.Context) (Result, error) {
	g.Start(ctx)
	return g.Wait()
}

// KeyPressed forwards a key press on slot to a player fed by an
// ExternalInput. Presses for other players are ignored.
func (g *Game) KeyPressed(player, slot int) {
	if player < 0 || player >= len(g.arbiter.players) {
		return
	}
	if in, ok := g.arbiter.players[player].input.(*ExternalInput); ok {
		in.Press(slot)
	}
}
