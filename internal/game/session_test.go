package game

import (
	"context"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/randutil"
)

type sentEvent struct {
	to    string // empty for broadcasts
	event Event
}

// recordingBroadcaster captures events in emission order
type recordingBroadcaster struct {
	events []sentEvent
}

func (r *recordingBroadcaster) Broadcast(e Event) {
	r.events = append(r.events, sentEvent{event: e})
}

func (r *recordingBroadcaster) SendTo(id string, e Event) {
	r.events = append(r.events, sentEvent{to: id, event: e})
}

func (r *recordingBroadcaster) reset() {
	r.events = nil
}

// types renders events as "type" or "type->player" for direct sends
func (r *recordingBroadcaster) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		name := e.event.EventType().String()
		if e.to != "" {
			name += "->" + e.to
		}
		out = append(out, name)
	}
	return out
}

func (r *recordingBroadcaster) last(et EventType) Event {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].event.EventType() == et {
			return r.events[i].event
		}
	}
	return nil
}

type recordingRecorder struct {
	results []RoundResult
}

func (r *recordingRecorder) RecordRound(result RoundResult) {
	r.results = append(r.results, result)
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *recordingBroadcaster) {
	t.Helper()
	rec := &recordingBroadcaster{}
	base := []Option{
		WithRand(randutil.New(42)),
		WithClock(quartz.NewMock(t)),
		WithLogger(log.NewWithOptions(io.Discard, log.Options{})),
	}
	return NewSession("main", rec, append(base, opts...)...), rec
}

func joinPlayers(t *testing.T, s *Session, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, res := s.Join(id, "Player "+id)
		require.Equal(t, Applied, res)
	}
}

func playerByID(t *testing.T, snap Snapshot, id string) PlayerView {
	t.Helper()
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("player %s not in snapshot", id)
	return PlayerView{}
}

func assertFullDeck(t *testing.T, s *Session) {
	t.Helper()
	cards := s.Cards()
	require.Len(t, cards, deck.Size)
	seen := make(map[deck.Card]bool, deck.Size)
	for _, c := range cards {
		require.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestSessionScenario(t *testing.T) {
	s, rec := newTestSession(t)
	joinPlayers(t, s, "p1", "p2", "p3")

	snap := s.Snapshot()
	assert.Equal(t, "p1", snap.Host)
	assert.Equal(t, "p1", snap.Dealer)
	assert.Equal(t, "p1", snap.Turn)
	for _, p := range snap.Players {
		assert.Equal(t, 100, p.Chips)
	}

	// pre-flop
	rec.reset()
	require.Equal(t, Applied, s.Deal("p1"))
	assert.Equal(t, []string{"game_state", "users", "turn"}, rec.types())
	snap = s.Snapshot()
	assert.Equal(t, PreFlop, snap.Phase)
	assert.Equal(t, "p2", snap.Turn)
	assert.Equal(t, deck.Size-6, snap.DeckSize)
	for _, p := range snap.Players {
		assert.Len(t, p.Hand, 2)
	}
	assertFullDeck(t, s)

	require.Equal(t, Applied, s.Act("p2", Bet{Amount: 20}))
	snap = s.Snapshot()
	assert.Equal(t, 20, snap.Pot)
	assert.Equal(t, 20, snap.CurrentBet)
	assert.Equal(t, 80, playerByID(t, snap, "p2").Chips)
	assert.Equal(t, "p3", snap.Turn)

	require.Equal(t, Applied, s.Act("p3", Fold{}))
	snap = s.Snapshot()
	assert.True(t, playerByID(t, snap, "p3").Folded)
	assert.Equal(t, "p1", snap.Turn)

	// flop, turn, river
	require.Equal(t, Applied, s.Deal("p1"))
	snap = s.Snapshot()
	assert.Equal(t, Flop, snap.Phase)
	assert.Len(t, snap.Community, 3)
	assert.Equal(t, "p2", snap.Turn)
	assertFullDeck(t, s)

	require.Equal(t, Applied, s.Deal("p1"))
	snap = s.Snapshot()
	assert.Equal(t, Turn, snap.Phase)
	assert.Len(t, snap.Community, 4)
	assert.Equal(t, "p1", snap.Turn, "folded p3 is skipped")

	require.Equal(t, Applied, s.Deal("p1"))
	snap = s.Snapshot()
	assert.Equal(t, River, snap.Phase)
	assert.Len(t, snap.Community, 5)
	assertFullDeck(t, s)

	// showdown
	rec.reset()
	require.Equal(t, Applied, s.Deal("p1"))
	assert.Equal(t, []string{"round_result", "game_state", "users", "turn"}, rec.types())

	result := rec.last(EventTypeRoundResult).(RoundResultEvent)
	assert.Contains(t, []string{"p1", "p2"}, result.WinnerID)
	assert.Equal(t, 20, result.Amount)
	assert.Equal(t, 1, result.Round)
	assert.Len(t, result.Community, 5)
	assert.False(t, result.Refunded)

	state := rec.last(EventTypeGameState).(GameStateEvent)
	assert.Equal(t, Waiting, state.Phase)
	assert.Empty(t, state.CommunityCards)
	assert.Zero(t, state.Pot)

	snap = s.Snapshot()
	assert.Equal(t, Waiting, snap.Phase)
	assert.Zero(t, snap.Pot)
	assert.Zero(t, snap.CurrentBet)
	assert.Empty(t, snap.Community)
	assert.True(t, s.deck.IsFresh())
	total := 0
	for _, p := range snap.Players {
		assert.False(t, p.Folded)
		assert.Zero(t, p.Bet)
		assert.Empty(t, p.Hand)
		total += p.Chips
	}
	assert.Equal(t, 300, total)
	switch result.WinnerID {
	case "p1":
		assert.Equal(t, 120, playerByID(t, snap, "p1").Chips)
		assert.Equal(t, 80, playerByID(t, snap, "p2").Chips)
	case "p2":
		assert.Equal(t, 100, playerByID(t, snap, "p1").Chips)
		assert.Equal(t, 100, playerByID(t, snap, "p2").Chips)
	}
	assert.Equal(t, 100, playerByID(t, snap, "p3").Chips)
	assert.Equal(t, "p3", snap.Turn)
}

func TestSessionJoin(t *testing.T) {
	t.Run("emits roster then private state to joiner", func(t *testing.T) {
		s, rec := newTestSession(t)
		view, res := s.Join("p1", "Alice")
		require.Equal(t, Applied, res)
		assert.Equal(t, "Alice (HOST)", view.Name)
		assert.True(t, view.IsHost)
		assert.Equal(t, 100, view.Chips)
		assert.Empty(t, view.Hand)
		assert.Equal(t, []string{"users", "turn", "dealer", "your_id->p1", "show_cards->p1"}, rec.types())

		rec.reset()
		view, _ = s.Join("p2", "Bob")
		assert.Equal(t, "Bob", view.Name)
		assert.False(t, view.IsHost)
		users := rec.events[0].event.(UsersEvent).Users
		assert.Equal(t, "Alice (HOST)", users["p1"].Name)
		assert.Equal(t, "Bob", users["p2"].Name)
	})

	t.Run("duplicate id is ignored", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1")
		rec.reset()
		_, res := s.Join("p1", "Again")
		assert.Equal(t, IgnoredInvalid, res)
		assert.Empty(t, rec.events)
		assert.Len(t, s.Snapshot().Players, 1)
	})

	t.Run("duplicate names are allowed", func(t *testing.T) {
		s, _ := newTestSession(t)
		_, res := s.Join("p1", "Sam")
		require.Equal(t, Applied, res)
		_, res = s.Join("p2", "Sam")
		assert.Equal(t, Applied, res)
	})

	t.Run("join stamps come from the session clock", func(t *testing.T) {
		clock := quartz.NewMock(t)
		s, _ := newTestSession(t, WithClock(clock))
		first := clock.Now()
		joinPlayers(t, s, "p1")
		clock.Advance(time.Second).MustWait(context.Background())
		joinPlayers(t, s, "p2")

		snap := s.Snapshot()
		assert.Equal(t, first, playerByID(t, snap, "p1").JoinedAt)
		assert.Equal(t, first.Add(time.Second), playerByID(t, snap, "p2").JoinedAt)
	})

	t.Run("late joiner sits out until the next round", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		require.Equal(t, Applied, s.Deal("p1"))

		view, res := s.Join("p3", "Late")
		require.Equal(t, Applied, res)
		assert.True(t, view.Folded)
		assert.Empty(t, view.Hand)
		assertFullDeck(t, s)

		// p2 acts, p3 is skipped
		require.Equal(t, Applied, s.Act("p2", Bet{Amount: 5}))
		assert.Equal(t, "p1", s.Snapshot().Turn)

		for range 4 {
			require.Equal(t, Applied, s.Deal("p1"))
		}
		require.Equal(t, Applied, s.Deal("p1"))
		assert.Len(t, playerByID(t, s.Snapshot(), "p3").Hand, 2)
	})
}

func TestSessionLeave(t *testing.T) {
	t.Run("current turn player leaving keeps index valid", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		require.Equal(t, Applied, s.Deal("p1"))
		require.Equal(t, "p2", s.Snapshot().Turn)

		require.Equal(t, Applied, s.Leave("p2"))
		snap := s.Snapshot()
		assert.Equal(t, "p3", snap.Turn)
		assert.Equal(t, 1, snap.TurnIndex)

		require.Equal(t, Applied, s.Leave("p3"))
		snap = s.Snapshot()
		assert.Equal(t, 0, snap.TurnIndex)
		assert.Equal(t, "p1", snap.Turn)

		assert.NotPanics(t, func() {
			assert.Equal(t, Applied, s.Act("p1", Fold{}))
		})
	})

	t.Run("last player leaving empties the turn", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1")
		rec.reset()
		require.Equal(t, Applied, s.Leave("p1"))
		assert.Equal(t, []string{"users", "turn", "dealer"}, rec.types())
		snap := s.Snapshot()
		assert.Empty(t, snap.Turn)
		assert.Empty(t, snap.Host)
		assert.Empty(t, snap.Dealer)
		assert.Equal(t, IgnoredNotYourTurn, s.Act("", Fold{}))
	})

	t.Run("unknown player is ignored", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1")
		rec.reset()
		assert.Equal(t, IgnoredInvalid, s.Leave("ghost"))
		assert.Empty(t, rec.events)
	})

	t.Run("host leaving promotes next earliest", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		rec.reset()
		require.Equal(t, Applied, s.Leave("p1"))
		snap := s.Snapshot()
		assert.Equal(t, "p2", snap.Host)
		assert.Equal(t, "p2", snap.Dealer, "dealer follows the host when the dealer leaves")
		users := rec.last(EventTypeUsers).(UsersEvent).Users
		assert.Equal(t, "Player p2 (HOST)", users["p2"].Name)
	})

	t.Run("chosen dealer survives host change", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		require.Equal(t, Applied, s.ChooseDealer("p1", "p3"))
		require.Equal(t, Applied, s.Leave("p1"))
		snap := s.Snapshot()
		assert.Equal(t, "p2", snap.Host)
		assert.Equal(t, "p3", snap.Dealer)
	})
}

func TestSessionAct(t *testing.T) {
	t.Run("bet moves chips into the pot", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		require.Equal(t, Applied, s.Act("p1", Bet{Amount: 7}))

		rec.reset()
		require.Equal(t, Applied, s.Act("p2", Bet{Amount: 20}))
		assert.Equal(t, []string{"users", "turn"}, rec.types())
		assert.Equal(t, "p3", rec.last(EventTypeTurn).(TurnEvent).PlayerID)

		snap := s.Snapshot()
		assert.Equal(t, 27, snap.Pot)
		assert.Equal(t, 20, snap.CurrentBet)
		assert.Equal(t, 80, playerByID(t, snap, "p2").Chips)
	})

	t.Run("bets accumulate so the pot equals the sum of bets", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		for _, amount := range []int{10, 5, 20, 15} {
			require.Equal(t, Applied, s.Act(s.Snapshot().Turn, Bet{Amount: amount}))
		}
		snap := s.Snapshot()
		sum := 0
		for _, p := range snap.Players {
			sum += p.Bet
		}
		assert.Equal(t, snap.Pot, sum)
		assert.Equal(t, 30, playerByID(t, snap, "p1").Bet)
		assert.Equal(t, 15, snap.CurrentBet)
	})

	t.Run("bet may exceed the stack", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1")
		require.Equal(t, Applied, s.Act("p1", Bet{Amount: 150}))
		assert.Equal(t, -50, playerByID(t, s.Snapshot(), "p1").Chips)
	})

	t.Run("out of turn is ignored", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		rec.reset()
		assert.Equal(t, IgnoredNotYourTurn, s.Act("p2", Bet{Amount: 10}))
		assert.Equal(t, IgnoredNotYourTurn, s.Act("ghost", Fold{}))
		assert.Empty(t, rec.events)
		assert.Zero(t, s.Snapshot().Pot)
	})

	t.Run("nil action is invalid", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		assert.Equal(t, IgnoredInvalid, s.Act("p1", nil))
		assert.Equal(t, "p1", s.Snapshot().Turn)
	})

	t.Run("everyone folded leaves the turn in place", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		require.Equal(t, Applied, s.Act("p1", Fold{}))
		require.Equal(t, Applied, s.Act("p2", Fold{}))
		assert.Equal(t, "p2", s.Snapshot().Turn)

		// holding the turn does not let a folded player back in
		assert.Equal(t, IgnoredInvalid, s.Act("p2", Bet{Amount: 5}))
		assert.Equal(t, IgnoredInvalid, s.Act("p2", Fold{}))
		assert.Zero(t, s.Snapshot().Pot)
	})

	t.Run("late joiner handed the turn by a leave cannot bet", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		require.Equal(t, Applied, s.Deal("p1"))
		_, res := s.Join("p3", "Late")
		require.Equal(t, Applied, res)

		require.Equal(t, Applied, s.Leave("p2"))
		require.Equal(t, "p3", s.Snapshot().Turn)
		assert.Equal(t, IgnoredInvalid, s.Act("p3", Bet{Amount: 10}))

		snap := s.Snapshot()
		assert.Zero(t, snap.Pot)
		assert.Equal(t, 100, playerByID(t, snap, "p3").Chips)
	})

	t.Run("bets that would overflow the pot are ignored", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")

		action, err := ParseAction("Bet", fmt.Sprint(math.MaxInt))
		require.NoError(t, err)
		require.Equal(t, Applied, s.Act("p1", action))
		require.Equal(t, math.MaxInt, s.Snapshot().Pot)

		rec.reset()
		assert.Equal(t, IgnoredInvalid, s.Act("p2", Bet{Amount: 1}))
		assert.Empty(t, rec.events)

		snap := s.Snapshot()
		assert.Equal(t, math.MaxInt, snap.Pot)
		assert.Equal(t, "p2", snap.Turn)
		assert.Equal(t, 100, playerByID(t, snap, "p2").Chips)
		require.NoError(t, checkSnapshot(snap, true))
	})
}

func TestSessionDeal(t *testing.T) {
	t.Run("only the dealer deals", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		rec.reset()
		assert.Equal(t, IgnoredNotAuthorized, s.Deal("p2"))
		assert.Empty(t, rec.events)
		assert.Equal(t, Waiting, s.Snapshot().Phase)

		require.Equal(t, Applied, s.ChooseDealer("p1", "p2"))
		assert.Equal(t, IgnoredNotAuthorized, s.Deal("p1"))
		assert.Equal(t, Applied, s.Deal("p2"))
	})

	t.Run("hole cards are popped individually in turn order", func(t *testing.T) {
		s, _ := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		top := s.deck.Cards()
		require.Equal(t, Applied, s.Deal("p1"))

		snap := s.Snapshot()
		n := len(top)
		for i, id := range []string{"p1", "p2", "p3"} {
			hand := playerByID(t, snap, id).Hand
			assert.Equal(t, []deck.Card{top[n-1-2*i], top[n-2-2*i]}, hand, id)
		}
	})

	t.Run("too many players for one deck", func(t *testing.T) {
		s, _ := newTestSession(t)
		for i := range 27 {
			joinPlayers(t, s, fmt.Sprintf("p%02d", i))
		}
		assert.Equal(t, IgnoredInvalid, s.Deal("p00"))
		assert.Equal(t, Waiting, s.Snapshot().Phase)
	})

	t.Run("everyone folded refunds the bets", func(t *testing.T) {
		recorder := &recordingRecorder{}
		s, rec := newTestSession(t, WithRecorder(recorder))
		joinPlayers(t, s, "p1", "p2")
		require.Equal(t, Applied, s.Deal("p1"))
		require.Equal(t, Applied, s.Act("p2", Bet{Amount: 10}))
		require.Equal(t, Applied, s.Act("p1", Bet{Amount: 4}))
		require.Equal(t, Applied, s.Act("p2", Fold{}))
		require.Equal(t, Applied, s.Act("p1", Fold{}))
		for range 4 {
			require.Equal(t, Applied, s.Deal("p1"))
		}

		result := rec.last(EventTypeRoundResult).(RoundResultEvent)
		assert.True(t, result.Refunded)
		assert.Empty(t, result.WinnerID)
		assert.Equal(t, 14, result.Amount)

		snap := s.Snapshot()
		assert.Equal(t, 100, playerByID(t, snap, "p1").Chips)
		assert.Equal(t, 100, playerByID(t, snap, "p2").Chips)
		require.Len(t, recorder.results, 1)
		assert.Equal(t, result.RoundResult, recorder.results[0])
	})

	t.Run("bets of a player who left are forfeited when everyone folds", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		require.Equal(t, Applied, s.Deal("p1"))
		require.Equal(t, Applied, s.Act("p2", Bet{Amount: 10}))
		require.Equal(t, Applied, s.Act("p3", Bet{Amount: 3}))
		require.Equal(t, Applied, s.Act("p1", Fold{}))
		require.Equal(t, Applied, s.Act("p2", Fold{}))
		require.Equal(t, "p3", s.Snapshot().Turn)
		require.Equal(t, Applied, s.Act("p3", Fold{}))
		require.Equal(t, Applied, s.Leave("p2"))
		for range 4 {
			require.Equal(t, Applied, s.Deal("p1"))
		}

		result := rec.last(EventTypeRoundResult).(RoundResultEvent)
		assert.True(t, result.Refunded)
		assert.Equal(t, 13, result.Amount)
		assert.Equal(t, 10, result.Forfeited)

		snap := s.Snapshot()
		assert.Zero(t, snap.Pot)
		assert.Equal(t, 100, playerByID(t, snap, "p1").Chips)
		assert.Equal(t, 100, playerByID(t, snap, "p3").Chips)
	})

	t.Run("ranked resolver names the hand", func(t *testing.T) {
		s, rec := newTestSession(t, WithResolver(RankedResolver{}))
		joinPlayers(t, s, "p1", "p2")
		for range 5 {
			require.Equal(t, Applied, s.Deal("p1"))
		}
		result := rec.last(EventTypeRoundResult).(RoundResultEvent)
		assert.NotEmpty(t, result.WinnerID)
		assert.NotEmpty(t, result.Hand)
	})

	t.Run("round result is stamped by the session clock", func(t *testing.T) {
		clock := quartz.NewMock(t)
		recorder := &recordingRecorder{}
		s, _ := newTestSession(t, WithClock(clock), WithRecorder(recorder))
		joinPlayers(t, s, "p1")
		for range 5 {
			require.Equal(t, Applied, s.Deal("p1"))
		}
		require.Len(t, recorder.results, 1)
		assert.Equal(t, clock.Now(), recorder.results[0].At)
		assert.Equal(t, "main", recorder.results[0].Room)
		assert.Equal(t, "p1", recorder.results[0].WinnerID)
	})

	t.Run("same seed deals the same cards", func(t *testing.T) {
		deal := func() []deck.Card {
			s, _ := newTestSession(t)
			joinPlayers(t, s, "p1", "p2")
			require.Equal(t, Applied, s.Deal("p1"))
			return s.Cards()
		}
		assert.Equal(t, deal(), deal())
	})
}

func TestSessionHostCommands(t *testing.T) {
	t.Run("show cards is host only", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2")
		rec.reset()
		assert.Equal(t, IgnoredNotAuthorized, s.ToggleShowCards("p2"))
		assert.Empty(t, rec.events)

		require.Equal(t, Applied, s.ToggleShowCards("p1"))
		assert.Equal(t, []string{"show_cards"}, rec.types())
		assert.True(t, rec.last(EventTypeShowCards).(ShowCardsEvent).Show)
		assert.True(t, s.Snapshot().ShowCards)

		require.Equal(t, Applied, s.ToggleShowCards("p1"))
		assert.False(t, s.Snapshot().ShowCards)
	})

	t.Run("joiner learns the reveal flag", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1")
		require.Equal(t, Applied, s.ToggleShowCards("p1"))
		rec.reset()
		joinPlayers(t, s, "p2")
		assert.True(t, rec.last(EventTypeShowCards).(ShowCardsEvent).Show)
	})

	t.Run("choose dealer", func(t *testing.T) {
		s, rec := newTestSession(t)
		joinPlayers(t, s, "p1", "p2", "p3")
		rec.reset()

		assert.Equal(t, IgnoredNotAuthorized, s.ChooseDealer("p2", "p2"))
		assert.Equal(t, IgnoredInvalid, s.ChooseDealer("p1", "ghost"))
		assert.Empty(t, rec.events)

		require.Equal(t, Applied, s.ChooseDealer("p1", "p2"))
		assert.Equal(t, []string{"dealer"}, rec.types())
		assert.Equal(t, "p2", s.Snapshot().Dealer)

		joinPlayers(t, s, "p4")
		assert.Equal(t, "p2", s.Snapshot().Dealer, "join keeps the chosen dealer")
	})
}

// checkSnapshot reports a broken invariant. With conserved set no player
// has left, so chips only move between the stacks and the pot.
func checkSnapshot(snap Snapshot, conserved bool) error {
	if n := len(snap.Players); n > 0 {
		if snap.TurnIndex < 0 || snap.TurnIndex >= n {
			return fmt.Errorf("turn index %d out of range for %d players", snap.TurnIndex, n)
		}
		if got := snap.Players[snap.TurnIndex].ID; got != snap.Turn {
			return fmt.Errorf("turn is %q but index %d holds %q", snap.Turn, snap.TurnIndex, got)
		}
	} else if snap.Turn != "" {
		return fmt.Errorf("turn %q with no players", snap.Turn)
	}
	if snap.Pot < 0 {
		return fmt.Errorf("negative pot %d", snap.Pot)
	}
	if !conserved {
		return nil
	}

	bets, chips := 0, 0
	for _, p := range snap.Players {
		bets += p.Bet
		chips += p.Chips
	}
	if bets != snap.Pot {
		return fmt.Errorf("bets sum to %d but pot is %d", bets, snap.Pot)
	}
	if want := DefaultStartingChips * len(snap.Players); chips+snap.Pot != want {
		return fmt.Errorf("chips plus pot is %d, want %d", chips+snap.Pot, want)
	}
	return nil
}

// checkCards reports duplicated cards, and with complete set, lost ones
func checkCards(cards []deck.Card, complete bool) error {
	seen := make(map[deck.Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			return fmt.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
	if len(cards) > deck.Size || complete && len(cards) != deck.Size {
		return fmt.Errorf("%d cards in play", len(cards))
	}
	return nil
}

func TestSessionConcurrentCommands(t *testing.T) {
	const (
		workers  = 8
		commands = 200
	)

	t.Run("bets and deals", func(t *testing.T) {
		s, _ := newTestSession(t)

		var g errgroup.Group
		for w := range workers {
			id := fmt.Sprintf("p%d", w)
			g.Go(func() error {
				if _, res := s.Join(id, "Player "+id); res != Applied {
					return fmt.Errorf("join %s: %s", id, res)
				}
				for i := range commands {
					switch i % 4 {
					case 0, 1:
						s.Act(id, Bet{Amount: 1 + i%5})
					case 2:
						s.Deal(id)
					case 3:
						if i%24 == 3 {
							s.Act(id, Fold{})
						}
					}
					if err := checkSnapshot(s.Snapshot(), true); err != nil {
						return fmt.Errorf("%s after command %d: %w", id, i, err)
					}
					if err := checkCards(s.Cards(), true); err != nil {
						return fmt.Errorf("%s after command %d: %w", id, i, err)
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		snap := s.Snapshot()
		assert.Len(t, snap.Players, workers)
		require.NoError(t, checkSnapshot(snap, true))
		assertFullDeck(t, s)
	})

	t.Run("joins and leaves", func(t *testing.T) {
		s, _ := newTestSession(t)

		var g errgroup.Group
		for w := range workers {
			id := fmt.Sprintf("p%d", w)
			g.Go(func() error {
				for i := range commands {
					switch i % 5 {
					case 0:
						s.Join(id, "Player "+id)
					case 1:
						s.Act(id, Bet{Amount: 2})
					case 2:
						s.Deal(id)
					case 3:
						s.Act(id, Fold{})
					case 4:
						s.Leave(id)
					}
					if err := checkSnapshot(s.Snapshot(), false); err != nil {
						return fmt.Errorf("%s after command %d: %w", id, i, err)
					}
					if err := checkCards(s.Cards(), false); err != nil {
						return fmt.Errorf("%s after command %d: %w", id, i, err)
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		snap := s.Snapshot()
		assert.Empty(t, snap.Players)
		assert.Empty(t, snap.Turn)
		assert.Empty(t, snap.Dealer)
	})
}
