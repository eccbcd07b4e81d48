package game

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/table"
	"golang.org/x/sync/errgroup"
)

const (
	// While the countdown is inside the warning window the arbiter wakes
	// often enough to keep the display smooth; otherwise once a second.
	shortSleep = 10 * time.Millisecond
	longSleep  = time.Second
	// Remaining times below this are shown as zero.
	countdownFloor = 19 * time.Millisecond
)

// Oracle answers match questions about cards. Implementations must be pure.
type Oracle interface {
	IsValidTriple(a, b, c deck.Card) bool
	ContainsAnyValidTriple(cards []deck.Card) bool
	FindTriples(cards []deck.Card, limit int) []deck.Triple
}

// State is the arbiter's phase.
type State int32

const (
	StateStarting State = iota
	StateDealing
	StateCountingDown
	StateRevalidating
	StateClearing
	StateAnnouncing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateDealing:
		return "dealing"
	case StateCountingDown:
		return "counting-down"
	case StateRevalidating:
		return "revalidating"
	case StateClearing:
		return "clearing"
	case StateAnnouncing:
		return "announcing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Arbiter owns the deck and the table contents. It deals, validates
// submissions in arrival order, reshuffles on timeout and decides when the
// game is over. Everything except the submission queue, the table cells and
// the player token locks is confined to the arbiter goroutine.
type Arbiter struct {
	cfg        Config
	oracle     Oracle
	table      *table.Table
	deck       *deck.Deck
	fullDeck   []deck.Card
	removed    []deck.Card
	players    []*Player
	display    Display
	clock      quartz.Clock
	logger     *log.Logger
	baseLogger *log.Logger

	submissions  chan Submission
	inbox        []Submission // taken off the queue while counting down
	tableOpen    *Gate
	deadline     time.Time
	tableChanged bool

	state   atomic.Int32
	stats   *stats
	winners []int
}

func newArbiter(cfg Config, o *options) *Arbiter {
	a := &Arbiter{
		cfg:         cfg,
		oracle:      o.oracle,
		table:       table.New(cfg.TableSize, cfg.DeckSize()),
		deck:        o.newDeck(cfg),
		display:     o.display,
		clock:       o.clock,
		logger:      o.logger.WithPrefix("arbiter"),
		baseLogger:  o.logger,
		submissions: make(chan Submission, cfg.QueueCapacity),
		tableOpen:   NewGate(false),
		stats:       newStats(len(cfg.Players)),
	}
	a.fullDeck = a.deck.Cards()

	a.players = make([]*Player, len(cfg.Players))
	for id, pc := range cfg.Players {
		a.players[id] = newPlayer(id, pc, a, o.inputFor(id, pc, cfg))
	}
	return a
}

// State returns the current phase. Safe to call from any goroutine.
func (a *Arbiter) State() State {
	return State(a.state.Load())
}

func (a *Arbiter) setState(s State) {
	if State(a.state.Swap(int32(s))) != s {
		a.logger.Debug("State", "state", s)
	}
}

// run drives the game until no triple is left or ctx ends, then stops and
// joins every player.
func (a *Arbiter) run(ctx context.Context) Result {
	a.logger.Info("Arbiter starting",
		"players", len(a.players),
		"deck", a.deck.Len(),
		"slots", a.table.Slots(),
		"timeout", a.cfg.TurnTimeout)

	playerCtx, stopPlayers := context.WithCancel(ctx)
	defer stopPlayers()
	g, playerCtx := errgroup.WithContext(playerCtx)
	for _, p := range a.players {
		g.Go(func() error { return p.Run(playerCtx) })
	}

	for !a.shouldFinish(ctx) {
		a.deal()
		a.timerLoop(ctx)
		a.updateCountdown()
		if ctx.Err() == nil && !a.clock.Now().Before(a.deadline) {
			a.stats.reshuffles.Add(1)
		}
		a.clearTable()
	}
	a.announceWinners()
	if ctx.Err() == nil {
		a.pause(ctx, a.cfg.EndGamePause)
	}

	// Cancelling the context wakes every player wherever it is blocked.
	stopPlayers()
	if err := g.Wait(); err != nil {
		a.logger.Error("Player exited with error", "error", err)
	}
	a.setState(StateTerminated)
	a.logger.Info("Arbiter terminated")
	return a.result()
}

// shouldFinish reports whether the game is over. At a loop head the table is
// empty, so the deck is the whole pool of cards still in play.
func (a *Arbiter) shouldFinish(ctx context.Context) bool {
	return ctx.Err() != nil || !a.oracle.ContainsAnyValidTriple(a.deck.Cards())
}

// timerLoop counts down to the reshuffle deadline, handling submissions as
// they arrive.
func (a *Arbiter) timerLoop(ctx context.Context) {
	for ctx.Err() == nil && a.clock.Now().Before(a.deadline) {
		a.setState(StateCountingDown)
		a.sleepUntilWokenOrTimeout(ctx)
		a.updateCountdown()

		a.setState(StateRevalidating)
		if found := a.drain(); found > 0 && a.exhausted() {
			a.logger.Info("No triple left on the table or in the deck")
			return
		}
		a.deal()
	}
}

// sleepUntilWokenOrTimeout waits for the next countdown tick, a submission
// or shutdown.
func (a *Arbiter) sleepUntilWokenOrTimeout(ctx context.Context) {
	remaining := a.deadline.Sub(a.clock.Now())
	if remaining <= 0 {
		return
	}
	step := longSleep
	if remaining <= a.cfg.TurnTimeoutWarning {
		step = shortSleep
	}
	step = min(step, remaining)

	t := a.clock.NewTimer(step, "arbiter", "countdown")
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	case sub := <-a.submissions:
		a.inbox = append(a.inbox, sub)
	}
}

func (a *Arbiter) updateCountdown() {
	remaining := a.deadline.Sub(a.clock.Now())
	switch {
	case remaining <= 0:
	case remaining <= countdownFloor:
		a.display.SetCountdown(0, true)
	case remaining <= a.cfg.TurnTimeoutWarning:
		a.display.SetCountdown(remaining, true)
	default:
		a.display.SetCountdown(remaining, false)
	}
}

// deal fills empty slots while the deck lasts. Dealing restarts the countdown
// and ends a table reset.
func (a *Arbiter) deal() {
	a.setState(StateDealing)
	if !a.deck.IsEmpty() && a.table.Count() < a.cfg.TableSize {
		placed := 0
		for _, slot := range a.table.EmptySlots() {
			card, ok := a.deck.Draw()
			if !ok {
				break
			}
			if err := a.table.Place(card, slot); err != nil {
				a.logger.Error("Failed to place card", "card", card, "slot", slot, "error", err)
				a.deck.Return(card)
				continue
			}
			a.display.PlaceCard(card, slot)
			a.tableChanged = true
			placed++
		}
		a.deadline = a.clock.Now().Add(a.cfg.TurnTimeout)
		a.display.SetCountdown(a.cfg.TurnTimeout, false)
		a.logger.Debug("Dealt cards", "placed", placed, "table", a.table.Count(), "deck", a.deck.Len())
	}

	a.tableOpen.Open()

	if a.cfg.Hints && a.tableChanged {
		triples := a.oracle.FindTriples(a.table.Cards(), 0)
		a.logger.Info("Hints", "triples", len(triples))
		a.display.ShowHints(triples)
	}
	a.tableChanged = false
}

// drain processes every submission currently queued, oldest first, and
// returns how many valid triples were removed.
func (a *Arbiter) drain() int {
	found := 0
	for {
		sub, ok := a.next()
		if !ok {
			return found
		}
		if a.process(sub) == VerdictPoint {
			found++
		}
	}
}

func (a *Arbiter) next() (Submission, bool) {
	if len(a.inbox) > 0 {
		sub := a.inbox[0]
		a.inbox = a.inbox[1:]
		return sub, true
	}
	select {
	case sub := <-a.submissions:
		return sub, true
	default:
		return Submission{}, false
	}
}

// process validates one submission, applies it and wakes the submitter.
// Every submission gets exactly one outcome.
func (a *Arbiter) process(sub Submission) Verdict {
	if sub.Player < 0 || sub.Player >= len(a.players) {
		a.logger.Error("Submission from unknown player", "player", sub.Player)
		return VerdictStale
	}
	p := a.players[sub.Player]

	verdict := a.validate(p, sub)
	a.stats.record(sub.Player, verdict)

	if !p.deliver(Outcome{Seq: sub.Seq, Verdict: verdict}) {
		a.logger.Error("Verdict slot full", "player", p.name, "seq", sub.Seq)
	}
	return verdict
}

func (a *Arbiter) validate(p *Player, sub Submission) Verdict {
	var missing []deck.Card
	for _, card := range sub.Cards {
		if !a.table.Contains(card) {
			missing = append(missing, card)
		}
	}
	if len(missing) > 0 {
		// Partially stale counts as stale: a half-gone triple is never judged.
		a.logger.Debug("Stale submission", "player", p.name, "cards", sub.Cards, "missing", missing)
		for _, q := range a.players {
			q.dropTokens(missing)
		}
		return VerdictStale
	}

	if !a.oracle.IsValidTriple(sub.Cards[0], sub.Cards[1], sub.Cards[2]) {
		a.logger.Debug("Penalty", "player", p.name, "cards", sub.Cards)
		return VerdictPenalty
	}

	a.removeTriple(sub.Cards)
	score := p.award()
	a.logger.Info("Triple found", "player", p.name, "cards", sub.Cards, "score", score)
	return VerdictPoint
}

// removeTriple takes a confirmed triple off the table for good. Cards leave
// the table before tokens are dropped so a player racing to mark one of them
// finds its slot already empty.
func (a *Arbiter) removeTriple(cards deck.Triple) {
	for _, card := range cards {
		slot, ok := a.table.SlotOf(card)
		if !ok {
			continue
		}
		if _, err := a.table.Remove(slot); err != nil {
			a.logger.Error("Failed to remove card", "card", card, "slot", slot, "error", err)
			continue
		}
		a.display.RemoveTokens(slot)
		a.display.RemoveCard(slot)
		a.removed = append(a.removed, card)
	}
	for _, q := range a.players {
		q.dropTokens(cards[:])
	}
	a.tableChanged = true
}

// exhausted reports whether no triple can be formed from the cards in play.
func (a *Arbiter) exhausted() bool {
	pool := append(a.table.Cards(), a.deck.Cards()...)
	return !a.oracle.ContainsAnyValidTriple(pool)
}

// clearTable returns every card on the table to the deck and drops every
// token. Submissions still queued are answered stale, as all of their cards
// have left the table.
func (a *Arbiter) clearTable() {
	a.setState(StateClearing)
	a.tableOpen.Close()
	a.display.RemoveAllTokens()

	var returned []deck.Card
	for slot := range a.table.Slots() {
		card, err := a.table.Remove(slot)
		if err != nil {
			continue
		}
		a.display.RemoveCard(slot)
		returned = append(returned, card)
	}
	a.deck.Return(returned...)
	for _, p := range a.players {
		p.clearTokens()
	}
	a.drain()

	a.logger.Info("Table cleared", "returned", len(returned), "deck", a.deck.Len(), "removed", len(a.removed))
	if err := a.checkConservation(); err != nil {
		a.logger.Error("Card accounting is broken", "error", err)
	}
}

// checkConservation verifies that table, deck and removed cards together are
// exactly the starting deck.
func (a *Arbiter) checkConservation() error {
	all := append(append(a.table.Cards(), a.deck.Cards()...), a.removed...)
	slices.Sort(all)
	if !slices.Equal(all, a.fullDeck) {
		return fmt.Errorf("expected %d distinct cards in play or removed, found %d: %v", len(a.fullDeck), len(all), all)
	}
	return nil
}

func (a *Arbiter) announceWinners() {
	a.setState(StateAnnouncing)
	best := -1
	for _, p := range a.players {
		best = max(best, p.Score())
	}
	a.winners = a.winners[:0]
	names := make([]string, 0, len(a.players))
	for _, p := range a.players {
		if p.Score() == best {
			a.winners = append(a.winners, p.id)
			names = append(names, p.name)
		}
	}
	a.display.AnnounceWinners(slices.Clone(a.winners))
	a.logger.Info("Game over", "winners", names, "score", best)
}

func (a *Arbiter) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := a.clock.NewTimer(d, "arbiter", "pause")
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (a *Arbiter) result() Result {
	scores := make([]int, len(a.players))
	for i, p := range a.players {
		scores[i] = p.Score()
	}
	return Result{
		Winners: slices.Clone(a.winners),
		Scores:  scores,
		Stats:   a.stats.snapshot(a.players, a.deck.Len()+a.table.Count()),
	}
}
