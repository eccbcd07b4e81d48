package game

import (
	"context"
	rand "math/rand/v2"
	"time"

	"github.com/coder/quartz"
)

// InputSource feeds slot presses into a player. Run blocks until ctx ends.
type InputSource interface {
	Run(ctx context.Context, p *Player) error
}

// ExternalInput forwards presses from an outside source such as a keyboard.
type ExternalInput struct {
	presses chan int
}

// NewExternalInput creates an input fed through Press.
func NewExternalInput() *ExternalInput {
	return &ExternalInput{presses: make(chan int, keyBuffer)}
}

// Press records a key press on slot. It never blocks; presses beyond the
// buffer are dropped, like a keyboard repeat the player cannot keep up with.
func (in *ExternalInput) Press(slot int) {
	select {
	case in.presses <- slot:
	default:
	}
}

func (in *ExternalInput) Run(ctx context.Context, p *Player) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case slot := <-in.presses:
			p.KeyPressed(slot)
		}
	}
}

// RandomInput presses random slots at a bounded rate. It pauses while its
// player is frozen or waiting for a verdict and while the table is reset.
type RandomInput struct {
	rng   *rand.Rand
	delay time.Duration
	clock quartz.Clock
}

// NewRandomInput creates a generator pressing one slot per delay.
func NewRandomInput(rng *rand.Rand, delay time.Duration, clock quartz.Clock) *RandomInput {
	return &RandomInput{rng: rng, delay: delay, clock: clock}
}

func (in *RandomInput) Run(ctx context.Context, p *Player) error {
	p.logger.Debug("Automated input starting", "delay", in.delay)
	defer p.logger.Debug("Automated input terminated")

	for {
		if err := p.ready.Wait(ctx); err != nil {
			return nil
		}
		if err := p.tableOpen.Wait(ctx); err != nil {
			return nil
		}

		p.KeyPressed(in.rng.IntN(p.table.Slots()))

		t := in.clock.NewTimer(in.delay, "input", "pace")
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
