package game

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/table"
	"golang.org/x/sync/errgroup"
)

// keyBuffer is how many presses may wait for the player goroutine.
const keyBuffer = 3

// PlayerState summarises where a player is in its submit cycle.
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerSelecting
	PlayerAwaitingVerdict
	PlayerFrozen
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "idle"
	case PlayerSelecting:
		return "selecting"
	case PlayerAwaitingVerdict:
		return "awaiting-verdict"
	case PlayerFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

type token struct {
	card deck.Card
	slot int
}

// Player is one participant. Its goroutine turns slot presses into token
// toggles, hands a full selection to the arbiter and blocks until the
// verdict arrives.
type Player struct {
	id    int
	name  string
	human bool
	input InputSource

	table       *table.Table
	tableOpen   *Gate // closed while the arbiter resets the table
	submissions chan<- Submission
	verdicts    chan Outcome
	keys        chan int
	display     Display
	clock       quartz.Clock
	logger      *log.Logger

	pointFreeze   time.Duration
	penaltyFreeze time.Duration

	// mu guards tokens. The player goroutine toggles them and the arbiter
	// clears them when cards leave the table.
	mu     sync.Mutex
	tokens []token
	seq    uint64 // owned by the player goroutine

	score   atomic.Int64
	pending atomic.Bool // a submission is waiting for its verdict
	frozen  atomic.Bool
	ready   *Gate // open while the player accepts presses
}

func newPlayer(id int, pc PlayerConfig, a *Arbiter, input InputSource) *Player {
	return &Player{
		id:            id,
		name:          pc.Name,
		human:         pc.Human,
		input:         input,
		table:         a.table,
		tableOpen:     a.tableOpen,
		submissions:   a.submissions,
		verdicts:      make(chan Outcome, 1),
		keys:          make(chan int, keyBuffer),
		display:       a.display,
		clock:         a.clock,
		logger:        a.baseLogger.WithPrefix("player").With("player", pc.Name, "id", id),
		pointFreeze:   a.cfg.PointFreeze,
		penaltyFreeze: a.cfg.PenaltyFreeze,
		tokens:        make([]token, 0, TokensPerSubmission),
		ready:         NewGate(true),
	}
}

// ID returns the stable player id.
func (p *Player) ID() int { return p.id }

// Name returns the configured display name.
func (p *Player) Name() string { return p.name }

// Human reports whether presses come from an outside source.
func (p *Player) Human() bool { return p.human }

// Score returns the number of triples this player found.
func (p *Player) Score() int { return int(p.score.Load()) }

// State returns the player's current phase.
func (p *Player) State() PlayerState {
	if p.frozen.Load() {
		return PlayerFrozen
	}
	if p.pending.Load() {
		return PlayerAwaitingVerdict
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) > 0 {
		return PlayerSelecting
	}
	return PlayerIdle
}

// Tokens returns the cards the player has currently selected.
func (p *Player) Tokens() []deck.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	cards := make([]deck.Card, len(p.tokens))
	for i, t := range p.tokens {
		cards[i] = t.card
	}
	return cards
}

// KeyPressed queues a press on slot. Presses arriving while a submission is
// pending or the player is frozen are dropped, as are presses that find the
// small key buffer full.
func (p *Player) KeyPressed(slot int) {
	if p.pending.Load() || p.frozen.Load() {
		return
	}
	select {
	case p.keys <- slot:
	default:
	}
}

// Run is the player goroutine. It owns the input source goroutine and only
// returns once that has exited too.
func (p *Player) Run(ctx context.Context) error {
	p.logger.Info("Player starting", "human", p.human)
	defer p.logger.Info("Player terminated")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.input.Run(ctx, p) })
	g.Go(func() error { return p.loop(ctx) })
	return g.Wait()
}

func (p *Player) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case slot := <-p.keys:
			sub, ok := p.toggle(slot)
			if !ok {
				continue
			}
			outcome, err := p.await(ctx, sub)
			if err != nil {
				return nil
			}
			p.resolve(ctx, outcome.Verdict)
		}
	}
}

// toggle flips this player's token on slot. It returns a submission when the
// token count moves from two to three.
func (p *Player) toggle(slot int) (Submission, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending.Load() {
		return Submission{}, false
	}
	card, ok := p.table.CardAt(slot)
	if !ok {
		return Submission{}, false
	}

	// Removing a token is always allowed.
	if i := slices.IndexFunc(p.tokens, func(t token) bool { return t.card == card }); i >= 0 {
		p.tokens = slices.Delete(p.tokens, i, i+1)
		p.display.RemoveToken(p.id, slot)
		return Submission{}, false
	}

	if p.frozen.Load() || !p.tableOpen.IsOpen() || len(p.tokens) >= TokensPerSubmission {
		return Submission{}, false
	}
	p.tokens = append(p.tokens, token{card: card, slot: slot})
	p.display.PlaceToken(p.id, slot)
	if len(p.tokens) != TokensPerSubmission {
		return Submission{}, false
	}

	p.pending.Store(true)
	p.ready.Close()
	p.seq++
	return Submission{
		Seq:    p.seq,
		Player: p.id,
		Cards:  deck.Triple{p.tokens[0].card, p.tokens[1].card, p.tokens[2].card},
	}, true
}

// await enqueues sub and blocks until the matching outcome arrives.
func (p *Player) await(ctx context.Context, sub Submission) (Outcome, error) {
	p.logger.Debug("Submitting triple", "cards", sub.Cards, "seq", sub.Seq)

	select {
	case p.submissions <- sub:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	for {
		select {
		case o := <-p.verdicts:
			if o.Seq == sub.Seq {
				return o, nil
			}
			p.logger.Warn("Discarding outcome for another submission", "seq", o.Seq, "want", sub.Seq)
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}
}

// resolve applies a verdict before the player accepts input again.
func (p *Player) resolve(ctx context.Context, v Verdict) {
	p.logger.Debug("Verdict received", "verdict", v)
	p.clearTokens()

	var freeze time.Duration
	switch v {
	case VerdictPoint:
		p.display.SetScore(p.id, p.Score())
		freeze = p.pointFreeze
	case VerdictPenalty:
		freeze = p.penaltyFreeze
	}
	if freeze > 0 {
		p.frozen.Store(true)
		p.serveFreeze(ctx, freeze)
		p.frozen.Store(false)
	}

	p.drainKeys()
	p.pending.Store(false)
	p.ready.Open()
}

func (p *Player) serveFreeze(ctx context.Context, d time.Duration) {
	for remaining := d; remaining > 0; {
		p.display.SetFreeze(p.id, remaining)
		step := min(remaining, time.Second)
		t := p.clock.NewTimer(step, "player", "freeze")
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		remaining -= step
	}
	p.display.SetFreeze(p.id, 0)
}

// drainKeys drops presses queued before the player was frozen.
func (p *Player) drainKeys() {
	for {
		select {
		case <-p.keys:
		default:
			return
		}
	}
}

// award records a point. The arbiter calls it before delivering the point
// verdict, so the score is final by the time winners are computed.
func (p *Player) award() int {
	return int(p.score.Add(1))
}

// deliver hands an outcome to the player without blocking. A player has at
// most one submission in flight, so the single-slot channel is never full.
func (p *Player) deliver(o Outcome) bool {
	select {
	case p.verdicts <- o:
		return true
	default:
		return false
	}
}

// clearTokens drops every token.
func (p *Player) clearTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tokens {
		p.hideToken(t, nil)
	}
	p.tokens = p.tokens[:0]
}

// dropTokens drops tokens on any of cards.
func (p *Player) dropTokens(cards []deck.Card) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.tokens[:0]
	var dropped []token
	for _, t := range p.tokens {
		if slices.Contains(cards, t.card) {
			dropped = append(dropped, t)
			continue
		}
		kept = append(kept, t)
	}
	p.tokens = kept
	for _, t := range dropped {
		p.hideToken(t, kept)
	}
}

// hideToken removes the token's marker unless a kept token shares its slot.
// Callers hold mu.
func (p *Player) hideToken(t token, kept []token) {
	if slices.ContainsFunc(kept, func(k token) bool { return k.slot == t.slot }) {
		return
	}
	p.display.RemoveToken(p.id, t.slot)
}
