// Package spectate serves a read-only websocket feed of a running game.
// Spectators receive a snapshot of the board on connect followed by every
// display notification as a JSON event. Messages sent by spectators are
// ignored.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/setforbots/internal/deck"
	"github.com/lox/setforbots/internal/game"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var _ game.Display = (*Hub)(nil)

// Config describes the game being broadcast.
type Config struct {
	Addr         string
	GameID       string
	FeatureCount int
	Players      []game.PlayerConfig
}

// Hub tracks spectator connections and fans events out to them.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader
	clock    quartz.Clock
	logger   *log.Logger

	// mu guards clients and the board; events are built and queued under
	// it so that a snapshot is never overtaken by an older event.
	mu      sync.Mutex
	clients map[*client]bool
	board   board
}

type board struct {
	players   []PlayerData
	cards     map[int]CardData
	tokens    map[TokenData]bool
	countdown CountdownData
	winners   []int
}

// NewHub creates a hub. Call Serve or ListenAndServe to accept spectators.
func NewHub(cfg Config, logger *log.Logger, clock quartz.Clock) *Hub {
	players := make([]PlayerData, len(cfg.Players))
	for i, p := range cfg.Players {
		players[i] = PlayerData{ID: i, Name: p.Name, Human: p.Human}
	}
	return &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			// Spectating is read-only, so any origin may watch.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clock:   clock,
		logger:  logger.WithPrefix("spectate"),
		clients: make(map[*client]bool),
		board: board{
			players: players,
			cards:   make(map[int]CardData),
			tokens:  make(map[TokenData]bool),
		},
	}
}

// Handler returns the hub's HTTP routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// ListenAndServe listens on the configured address and serves until ctx ends.
func (h *Hub) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.cfg.Addr, err)
	}
	return h.Serve(ctx, ln)
}

// Serve accepts spectators on ln until ctx ends, then closes every
// connection.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.logger.Info("Starting spectator server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("spectator server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.closeAll()
		h.logger.Info("Spectator server stopped")
		return err
	})
	return g.Wait()
}

// Clients returns the number of connected spectators.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn, h.logger, h.clock)
	h.mu.Lock()
	h.clients[c] = true
	snapshot, err := h.eventLocked(TypeSnapshot, h.snapshotLocked())
	if err == nil {
		c.enqueue(snapshot)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if err != nil {
		h.logger.Error("Failed to build snapshot", "error", err)
	}
	h.logger.Info("Spectator connected", "remote", r.RemoteAddr, "total", total)

	go c.writePump()
	go func() {
		c.readPump()
		h.remove(c)
	}()
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.logger.Info("Spectator disconnected", "total", total)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) eventLocked(t EventType, data any) ([]byte, error) {
	ev, err := NewEvent(t, h.cfg.GameID, data, h.clock.Now())
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// publish applies update to the board and sends the event to every
// spectator. Spectators that cannot keep up are dropped.
func (h *Hub) publish(t EventType, data any, update func(*board)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if update != nil {
		update(&h.board)
	}
	if len(h.clients) == 0 {
		return
	}
	msg, err := h.eventLocked(t, data)
	if err != nil {
		h.logger.Error("Failed to encode event", "type", t, "error", err)
		return
	}
	for c := range h.clients {
		if !c.enqueue(msg) {
			h.logger.Warn("Spectator too slow, disconnecting")
			delete(h.clients, c)
			go c.close()
		}
	}
}

func (h *Hub) snapshotLocked() SnapshotData {
	s := SnapshotData{
		Players:   slices.Clone(h.board.players),
		Cards:     make([]CardData, 0, len(h.board.cards)),
		Tokens:    make([]TokenData, 0, len(h.board.tokens)),
		Countdown: h.board.countdown,
		Winners:   slices.Clone(h.board.winners),
	}
	for _, c := range h.board.cards {
		s.Cards = append(s.Cards, c)
	}
	slices.SortFunc(s.Cards, func(a, b CardData) int { return a.Slot - b.Slot })
	for t := range h.board.tokens {
		s.Tokens = append(s.Tokens, t)
	}
	slices.SortFunc(s.Tokens, func(a, b TokenData) int {
		if a.Slot != b.Slot {
			return a.Slot - b.Slot
		}
		return a.Player - b.Player
	})
	return s
}

func (h *Hub) SetCountdown(remaining time.Duration, warn bool) {
	data := CountdownData{RemainingMs: remaining.Milliseconds(), Warn: warn}
	h.publish(TypeCountdown, data, func(b *board) { b.countdown = data })
}

func (h *Hub) PlaceCard(card deck.Card, slot int) {
	data := newCardData(card, slot, h.cfg.FeatureCount)
	h.publish(TypeCardPlaced, data, func(b *board) { b.cards[slot] = data })
}

func (h *Hub) RemoveCard(slot int) {
	h.publish(TypeCardRemoved, SlotData{Slot: slot}, func(b *board) {
		delete(b.cards, slot)
		b.clearSlot(slot)
	})
}

func (h *Hub) PlaceToken(player, slot int) {
	data := TokenData{Player: player, Slot: slot}
	h.publish(TypeTokenPlaced, data, func(b *board) { b.tokens[data] = true })
}

func (h *Hub) RemoveToken(player, slot int) {
	data := TokenData{Player: player, Slot: slot}
	h.publish(TypeTokenRemoved, data, func(b *board) { delete(b.tokens, data) })
}

func (h *Hub) RemoveTokens(slot int) {
	h.publish(TypeTokensCleared, SlotData{Slot: slot}, func(b *board) { b.clearSlot(slot) })
}

func (h *Hub) RemoveAllTokens() {
	h.publish(TypeAllTokensCleared, nil, func(b *board) { clear(b.tokens) })
}

func (h *Hub) SetScore(player, score int) {
	h.publish(TypeScore, ScoreData{Player: player, Score: score}, func(b *board) {
		if player >= 0 && player < len(b.players) {
			b.players[player].Score = score
		}
	})
}

func (h *Hub) SetFreeze(player int, remaining time.Duration) {
	h.publish(TypeFreeze, FreezeData{Player: player, RemainingMs: remaining.Milliseconds()}, nil)
}

func (h *Hub) AnnounceWinners(players []int) {
	winners := slices.Clone(players)
	h.publish(TypeWinners, WinnersData{Players: winners}, func(b *board) { b.winners = winners })
}

func (h *Hub) ShowHints(triples []deck.Triple) {
	data := HintsData{Triples: make([][3]int, len(triples))}
	for i, t := range triples {
		data.Triples[i] = [3]int{int(t[0]), int(t[1]), int(t[2])}
	}
	h.publish(TypeHints, data, nil)
}

func (b *board) clearSlot(slot int) {
	for t := range b.tokens {
		if t.Slot == slot {
			delete(b.tokens, t)
		}
	}
}
