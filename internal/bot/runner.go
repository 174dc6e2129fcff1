package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/session/service"
)

// EventType indicates the type of bot event.
type EventType int

const (
	EventTraded EventType = iota
	EventError
)

// Event represents an action or failure from a bot.
type Event struct {
	PlayerID string
	Time     int64
	Type     EventType
	Trade    *ledger.Trade // set for EventTraded
	Message  string        // set for EventError
}

// Runner drives a strategy off a session's update stream. It owns a
// joined player and submits that player's trades back to the session.
type Runner struct {
	cfg      Config
	playerID string
	strategy Strategy
	svc      *service.Service

	events        chan Event
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner starts a runner for an already joined player. It consumes
// the session's Updates channel, so at most one runner (and no other
// subscriber) should be attached to a session.
func NewRunner(cfg Config, playerID string, strat Strategy, svc *service.Service) *Runner {
	def := DefaultConfig()
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}

	r := &Runner{
		cfg:      cfg,
		playerID: playerID,
		strategy: strat,
		svc:      svc,
		events:   make(chan Event, cfg.EventBuffer),
		closed:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()
	defer close(r.events)

	for {
		select {
		case <-r.closed:
			return
		case u, ok := <-r.svc.Updates():
			if !ok {
				return
			}
			r.step(u)
		}
	}
}

func (r *Runner) step(u service.Update) {
	ctx := context.Background()

	player, err := r.svc.Player(ctx, r.playerID)
	if err != nil {
		r.emitEvent(Event{
			PlayerID: r.playerID,
			Time:     time.Now().UnixNano(),
			Type:     EventError,
			Message:  err.Error(),
		})
		return
	}

	intents := r.strategy.Step(View{Tick: u.Tick, Stocks: u.Stocks, Player: player})
	for _, intent := range intents {
		r.executeIntent(ctx, intent)
	}
}

func (r *Runner) executeIntent(ctx context.Context, intent Intent) {
	trade, _, err := r.svc.ExecuteTrade(ctx, r.playerID, intent.StockID, intent.Action, intent.Quantity)
	if err != nil {
		r.emitEvent(Event{
			PlayerID: r.playerID,
			Time:     time.Now().UnixNano(),
			Type:     EventError,
			Message:  err.Error(),
		})
		return
	}

	r.emitEvent(Event{
		PlayerID: r.playerID,
		Time:     trade.Time,
		Type:     EventTraded,
		Trade:    &trade,
	})
}

func (r *Runner) emitEvent(ev Event) {
	if r.cfg.DropEvents {
		select {
		case r.events <- ev:
		default:
			r.droppedEvents.Add(1)
		}
	} else {
		select {
		case r.events <- ev:
		case <-r.closed:
		}
	}
}

// Events returns the bot events channel.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// DroppedEvents returns the count of dropped events.
func (r *Runner) DroppedEvents() int64 {
	return r.droppedEvents.Load()
}

// Close shuts down the runner. It does not close the session.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}
