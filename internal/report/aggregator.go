package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	// ErrStopped is returned by updates sent after Run has returned
	ErrStopped = errors.New("report aggregator stopped")

	// ErrInvalidExtraAmount is returned for extra amounts that are not a
	// non-negative number with at most two decimals
	ErrInvalidExtraAmount = errors.New("invalid extra amount")
)

const (
	watchRetryDelay    = time.Second
	maxWatchRetryDelay = 30 * time.Second
)

// Source streams the entries of a time range. A new slice is sent every
// time the range's entries change; the channel closes when ctx is done.
type Source interface {
	WatchEntries(ctx context.Context, from, to time.Time) (<-chan []Delivery, error)
}

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// update is one queued change to the state. The new state is sent on reply.
type update struct {
	apply     func(State) State
	recompute bool
	reply     chan State
}

// snapshot is a list of entries tagged with the subscription it came from
type snapshot struct {
	generation int
	entries    []Delivery
}

// Aggregator keeps one day's report up to date. All changes go through a
// single queue processed by Run; readers get copies through State.
type Aggregator struct {
	source    Source
	loc       *time.Location
	state     atomic.Pointer[State]
	updates   chan update
	snapshots chan snapshot
	done      chan struct{}

	retryDelay time.Duration
}

// NewAggregator creates an Aggregator for today's date in loc
func NewAggregator(source Source, clock Clock, loc *time.Location) *Aggregator {
	if clock == nil {
		clock = systemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	a := &Aggregator{
		source:    source,
		loc:       loc,
		updates:   make(chan update),
		snapshots: make(chan snapshot),
		done:      make(chan struct{}),

		retryDelay: watchRetryDelay,
	}
	initial := NewState(DateOf(clock.Now(), loc))
	a.state.Store(&initial)
	return a
}

// State returns a copy of the current state
func (a *Aggregator) State() State {
	return *a.state.Load()
}

// Run processes updates and entry snapshots until ctx is done
func (a *Aggregator) Run(ctx context.Context) error {
	defer close(a.done)

	var (
		entries    []Delivery
		generation int
	)
	subCtx, cancel := context.WithCancel(ctx)
	a.subscribe(subCtx, generation, a.State().SelectedDate)

	for {
		select {
		case <-ctx.Done():
			cancel()
			return nil

		case u := <-a.updates:
			current := a.State()
			next := u.apply(current)
			if next.SelectedDate != current.SelectedDate {
				// Drop the old day's subscription before anything else
				// can arrive for it
				cancel()
				generation++
				entries = nil
				subCtx, cancel = context.WithCancel(ctx)
				a.subscribe(subCtx, generation, next.SelectedDate)
			}
			if u.recompute {
				next = Recompute(next, entries, a.loc)
			}
			a.state.Store(&next)
			u.reply <- next

		case snap := <-a.snapshots:
			if snap.generation != generation {
				continue
			}
			entries = snap.entries
			next := Recompute(a.State(), entries, a.loc)
			a.state.Store(&next)
			slog.Debug("Report recomputed",
				"date", next.SelectedDate,
				"paid", next.PaidCount,
				"unpaid", next.UnpaidCount,
				"unpaid_total", next.UnpaidTotal,
			)
		}
	}
}

// subscribe forwards the source's snapshots for date into the run loop. A
// failed watch is retried with a doubling delay until ctx is done.
func (a *Aggregator) subscribe(ctx context.Context, generation int, date Date) {
	from, to := date.Bounds(a.loc)
	ch, err := a.source.WatchEntries(ctx, from, to)
	if err != nil {
		slog.Error("Failed to watch entries", "date", date, "error", err)
	}

	go func() {
		delay := a.retryDelay
		for err != nil {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			ch, err = a.source.WatchEntries(ctx, from, to)
			if err != nil {
				delay = min(delay*2, maxWatchRetryDelay)
				slog.Warn("Failed to watch entries, retrying", "date", date, "error", err, "retry_in", delay)
			}
		}

		for entries := range ch {
			select {
			case a.snapshots <- snapshot{generation: generation, entries: entries}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (a *Aggregator) send(ctx context.Context, recompute bool, apply func(State) State) (State, error) {
	u := update{apply: apply, recompute: recompute, reply: make(chan State, 1)}
	select {
	case a.updates <- u:
	case <-a.done:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	return <-u.reply, nil
}

// SelectDate switches the report to another day and resets it to defaults
// until the day's first snapshot arrives. Selecting the current day changes
// nothing.
func (a *Aggregator) SelectDate(ctx context.Context, date Date) (State, error) {
	return a.send(ctx, false, func(s State) State {
		if s.SelectedDate == date {
			return s
		}
		return NewState(date)
	})
}

// SetStartTime changes the shift start. It also ends manual editing of the
// extra amount so the incentive follows the new morning window.
func (a *Aggregator) SetStartTime(ctx context.Context, start TimeOfDay) (State, error) {
	return a.send(ctx, true, func(s State) State {
		s.StartTime = start
		s.IsEditingExtra = false
		return s
	})
}

// SetEndTime changes the shift end
func (a *Aggregator) SetEndTime(ctx context.Context, end TimeOfDay) (State, error) {
	return a.send(ctx, true, func(s State) State {
		s.EndTime = end
		return s
	})
}

// SetWindow changes both shift boundaries in one update
func (a *Aggregator) SetWindow(ctx context.Context, start, end TimeOfDay) (State, error) {
	return a.UpdateWindow(ctx, &start, &end)
}

// UpdateWindow changes the given shift boundaries in one update. A nil
// boundary keeps the value it has when the update is applied.
func (a *Aggregator) UpdateWindow(ctx context.Context, start, end *TimeOfDay) (State, error) {
	return a.send(ctx, true, func(s State) State {
		if start != nil {
			if s.StartTime != *start {
				s.IsEditingExtra = false
			}
			s.StartTime = *start
		}
		if end != nil {
			s.EndTime = *end
		}
		return s
	})
}

// SetExtraAmount stores an operator-entered extra amount. It is kept until
// the next recomputation that happens outside edit mode. Evening shifts
// have no extra amount, so the input is ignored there.
func (a *Aggregator) SetExtraAmount(ctx context.Context, amount string) (State, error) {
	if !ValidExtraAmount(amount) {
		return State{}, fmt.Errorf("%w: %q", ErrInvalidExtraAmount, amount)
	}
	return a.send(ctx, false, func(s State) State {
		if !HasMorningWindow(s.StartTime) {
			s.ExtraAmount = zeroAmount
			return s
		}
		s.ExtraAmount = amount
		return s
	})
}

// SetEditingExtra enters or leaves manual editing of the extra amount.
// Leaving edit mode keeps the entered value; the next date, shift or entry
// change outside edit mode recalculates it.
func (a *Aggregator) SetEditingExtra(ctx context.Context, editing bool) (State, error) {
	return a.send(ctx, false, func(s State) State {
		s.IsEditingExtra = editing
		return s
	})
}
