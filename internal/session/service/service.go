// Package service runs one trading session as a single actor
// goroutine. The goroutine owns the session state, the player
// ledgers, and the tick timer; every mutation, including trade
// execution, is serialized through its command channel so a trade can
// never observe a half-updated book and a pause or speed change can
// never race an in-flight tick.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
	"github.com/zappabad/microcap/internal/session/core"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownStock  = errors.New("unknown stock")
	ErrBadSpeed      = errors.New("unsupported speed multiplier")
)

// Update is the per-tick payload published to subscribers.
type Update struct {
	Tick            int
	Stocks          []market.Stock
	NewEvents       []market.Event
	SessionComplete bool
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Phase         core.Phase
	Tick          int
	SessionLength int
	Speed         float64
	Stocks        []market.Stock
	Events        []market.Event
}

// command types
type cmdType int

const (
	cmdStart cmdType = iota
	cmdPause
	cmdResume
	cmdReset
	cmdSetSpeed
	cmdStep
	cmdAddPlayer
	cmdExecuteTrade
	cmdGetPlayer
	cmdSnapshot
)

type command struct {
	typ      cmdType
	speed    float64
	name     string
	playerID string
	stockID  market.StockID
	action   ledger.Action
	quantity int64
	stocks   []market.Stock // for reset
	respCh   chan<- response
}

type response struct {
	trade    ledger.Trade
	player   *ledger.Player
	snapshot Snapshot
	err      error
}

// Service owns the session state and player ledgers, providing
// thread-safe access.
type Service struct {
	cfg       Config
	state     core.State
	scheduler *core.Scheduler
	src       rng.Source
	players   map[string]*ledger.Player
	speed     float64
	ticker    *time.Ticker

	cmdCh   chan command
	updates chan Update

	droppedUpdates atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates a session Service over the given instruments.
// The actor goroutine starts immediately; the session itself stays
// idle until Start.
func NewService(stocks []market.Stock, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if len(cfg.SpeedMultipliers) == 0 {
		cfg.SpeedMultipliers = def.SpeedMultipliers
	}
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = def.SessionLength
	}
	if cfg.StartingCash <= 0 {
		cfg.StartingCash = def.StartingCash
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = def.CommandBuffer
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = def.UpdateBuffer
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Service{
		cfg:       cfg,
		state:     core.NewState(stocks, cfg.SessionLength),
		scheduler: core.NewScheduler(nil),
		src:       rng.New(seed),
		players:   make(map[string]*ledger.Player),
		speed:     1,
		cmdCh:     make(chan command, cfg.CommandBuffer),
		updates:   make(chan Update, cfg.UpdateBuffer),
		closed:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// run is the actor loop. It is the only goroutine that touches
// s.state, s.players, s.speed, and s.ticker.
func (s *Service) run() {
	defer s.wg.Done()
	defer close(s.updates)

	for {
		select {
		case <-s.closed:
			s.stopTicker()
			return
		case <-s.tickC():
			s.step()
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		}
	}
}

// tickC returns the timer channel, or nil when the session is not
// running so the select never fires.
func (s *Service) tickC() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

func (s *Service) interval() time.Duration {
	return time.Duration(float64(s.cfg.TickInterval) / s.speed)
}

func (s *Service) startTicker() {
	s.stopTicker()
	s.ticker = time.NewTicker(s.interval())
}

func (s *Service) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// step advances the session one tick and publishes the result.
func (s *Service) step() {
	if s.state.Phase != core.PhaseRunning {
		return
	}

	result := s.scheduler.Tick(&s.state, s.src)
	if result.SessionComplete {
		s.stopTicker()
	}
	s.markPlayers()
	s.publish(Update{
		Tick:            result.Tick,
		Stocks:          cloneStocks(result.Stocks),
		NewEvents:       result.NewEvents,
		SessionComplete: result.SessionComplete,
	})
}

func (s *Service) publish(u Update) {
	if s.cfg.DropUpdates {
		select {
		case s.updates <- u:
		default:
			s.droppedUpdates.Add(1)
		}
		return
	}
	select {
	case s.updates <- u:
	case <-s.closed:
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response

	switch cmd.typ {
	case cmdStart:
		resp.err = s.state.Start()
		if resp.err == nil {
			s.startTicker()
		}

	case cmdPause:
		resp.err = s.state.Pause()
		if resp.err == nil {
			s.stopTicker()
		}

	case cmdResume:
		resp.err = s.state.Resume()
		if resp.err == nil {
			s.startTicker()
		}

	case cmdReset:
		s.stopTicker()
		s.state.Reset(cmd.stocks)
		// Keep each player's id so callers' handles stay valid
		// across rounds.
		for id, p := range s.players {
			fresh := ledger.NewPlayer(p.Name, s.cfg.StartingCash)
			fresh.ID = id
			*p = *fresh
		}

	case cmdSetSpeed:
		if !s.validSpeed(cmd.speed) {
			resp.err = ErrBadSpeed
			break
		}
		s.speed = cmd.speed
		if s.ticker != nil {
			s.startTicker()
		}

	case cmdStep:
		if s.state.Phase == core.PhaseIdle {
			resp.err = s.state.Start()
			if resp.err != nil {
				break
			}
		}
		s.step()

	case cmdAddPlayer:
		p := ledger.NewPlayer(cmd.name, s.cfg.StartingCash)
		s.players[p.ID] = p
		resp.player = p.Clone()

	case cmdExecuteTrade:
		resp.trade, resp.player, resp.err = s.executeTrade(cmd)

	case cmdGetPlayer:
		p, ok := s.players[cmd.playerID]
		if !ok {
			resp.err = ErrUnknownPlayer
			break
		}
		resp.player = p.Clone()

	case cmdSnapshot:
		resp.snapshot = Snapshot{
			Phase:         s.state.Phase,
			Tick:          s.state.Tick,
			SessionLength: s.state.SessionLength,
			Speed:         s.speed,
			Stocks:        cloneStocks(s.state.Stocks),
			Events:        append([]market.Event(nil), s.state.Events...),
		}
	}

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

func (s *Service) executeTrade(cmd command) (ledger.Trade, *ledger.Player, error) {
	p, ok := s.players[cmd.playerID]
	if !ok {
		return ledger.Trade{}, nil, ErrUnknownPlayer
	}
	stock, ok := s.findStock(cmd.stockID)
	if !ok {
		return ledger.Trade{}, nil, ErrUnknownStock
	}

	trade, err := ledger.Execute(p, stock, s.quotes(), cmd.action, cmd.quantity, time.Now().UnixNano())
	if err != nil {
		return ledger.Trade{}, nil, err
	}
	return trade, p.Clone(), nil
}

func (s *Service) findStock(id market.StockID) (market.Stock, bool) {
	for i := range s.state.Stocks {
		if s.state.Stocks[i].ID == id {
			return s.state.Stocks[i], true
		}
	}
	return market.Stock{}, false
}

func (s *Service) quotes() map[market.StockID]float64 {
	quotes := make(map[market.StockID]float64, len(s.state.Stocks))
	for i := range s.state.Stocks {
		quotes[s.state.Stocks[i].ID] = s.state.Stocks[i].Price
	}
	return quotes
}

// markPlayers refreshes every player's total value against the prices
// produced by the tick that just ran.
func (s *Service) markPlayers() {
	quotes := s.quotes()
	for _, p := range s.players {
		p.TotalValue = ledger.MarkToMarket(p, quotes)
	}
}

func (s *Service) validSpeed(speed float64) bool {
	for _, m := range s.cfg.SpeedMultipliers {
		if m == speed {
			return true
		}
	}
	return false
}

func cloneStocks(stocks []market.Stock) []market.Stock {
	out := make([]market.Stock, len(stocks))
	for i := range stocks {
		out[i] = stocks[i].Clone()
	}
	return out
}

func (s *Service) send(ctx context.Context, cmd command, respCh chan response) (response, error) {
	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case s.cmdCh <- cmd:
	}

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case resp := <-respCh:
		return resp, nil
	}
}

// Start begins ticking from the idle phase.
func (s *Service) Start(ctx context.Context) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdStart, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// Pause stops the timer without discarding state.
func (s *Service) Pause(ctx context.Context) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdPause, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// Resume continues from the exact paused state.
func (s *Service) Resume(ctx context.Context) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdResume, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// Reset returns the session to idle over a fresh instrument set and
// restores every player to the starting balance.
func (s *Service) Reset(ctx context.Context, stocks []market.Stock) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdReset, stocks: stocks, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// SetSpeed swaps the tick timer for a new speed multiplier. The swap
// happens inside the actor loop, so no tick is skipped or double-fired.
func (s *Service) SetSpeed(ctx context.Context, speed float64) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdSetSpeed, speed: speed, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// Step advances exactly one tick, starting the session if it is still
// idle. Intended for headless drivers and tests; stepping never arms
// the timer.
func (s *Service) Step(ctx context.Context) error {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdStep, respCh: respCh}, respCh)
	if err != nil {
		return err
	}
	return resp.err
}

// AddPlayer registers a new player and returns its snapshot.
func (s *Service) AddPlayer(ctx context.Context, name string) (*ledger.Player, error) {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdAddPlayer, name: name, respCh: respCh}, respCh)
	if err != nil {
		return nil, err
	}
	return resp.player, resp.err
}

// ExecuteTrade fills a trade for a player against the current book
// snapshot and returns the recorded trade plus the updated player.
func (s *Service) ExecuteTrade(ctx context.Context, playerID string, stockID market.StockID, action ledger.Action, quantity int64) (ledger.Trade, *ledger.Player, error) {
	respCh := make(chan response, 1)
	cmd := command{
		typ:      cmdExecuteTrade,
		playerID: playerID,
		stockID:  stockID,
		action:   action,
		quantity: quantity,
		respCh:   respCh,
	}
	resp, err := s.send(ctx, cmd, respCh)
	if err != nil {
		return ledger.Trade{}, nil, err
	}
	return resp.trade, resp.player, resp.err
}

// Player returns a snapshot of one player's account.
func (s *Service) Player(ctx context.Context, playerID string) (*ledger.Player, error) {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdGetPlayer, playerID: playerID, respCh: respCh}, respCh)
	if err != nil {
		return nil, err
	}
	return resp.player, resp.err
}

// Snapshot returns a copy of the full session state.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	respCh := make(chan response, 1)
	resp, err := s.send(ctx, command{typ: cmdSnapshot, respCh: respCh}, respCh)
	if err != nil {
		return Snapshot{}, err
	}
	return resp.snapshot, resp.err
}

// Updates returns the per-tick updates channel for subscribers.
func (s *Service) Updates() <-chan Update {
	return s.updates
}

// DroppedUpdates returns the count of updates dropped on overflow.
func (s *Service) DroppedUpdates() int64 {
	return s.droppedUpdates.Load()
}

// Close shuts down the service and waits for the actor to finish.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
