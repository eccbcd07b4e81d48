// Package game coordinates a real-time triple-matching contest.
//
// An Arbiter deals cards from a deck onto a fixed number of table slots.
// Each Player runs in its own goroutine and toggles tokens on slots as presses
// arrive from its InputSource. When a player's third token lands, it sends a
// Submission to the arbiter's queue and blocks until the matching Outcome
// comes back on its own single-slot channel.
//
// # Basic Usage
//
//	cfg := game.DefaultConfig()
//	g, err := game.New(cfg, game.WithLogger(logger), game.WithDisplay(display))
//	if err != nil {
//	    return err
//	}
//	g.Start(ctx)
//	g.KeyPressed(0, 4) // player 0 presses slot 4
//	result, err := g.Wait()
//
// # Deterministic Testing
//
// Inject a quartz mock clock with WithClock and a fixed Config.Seed. WithDeck
// restricts the deck to chosen cards so a test can control exactly which
// triples exist.
//
// # Concurrency
//
// Only the arbiter goroutine changes the table and the deck. Players read
// table slots without locking and may act on a slightly stale view; the
// arbiter rechecks every submitted card against the table and answers stale
// submissions with VerdictStale instead of a penalty. Shutdown cancels one
// context, which wakes every blocked goroutine, and the arbiter joins all
// players and their input sources before the game reports its result.
package game
