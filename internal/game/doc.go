// Package game implements the session state machine for a card room.
//
// The main type is Session, which owns everything about one room: the
// Roster of seated players, the TurnScheduler, the RoundState and the deck.
// Commands (Join, Leave, Act, Deal, ToggleShowCards, ChooseDealer) are
// applied one at a time under a single lock and report a Result rather
// than an error: a rejected command leaves the session untouched.
//
// # Basic Usage
//
//	s := game.NewSession("main", broadcaster)
//	s.Join("c1", "Alice") // host and dealer
//	s.Join("c2", "Bob")
//	s.Deal("c1")          // pre-flop, turn passes to Bob
//	s.Act("c2", game.Bet{Amount: 20})
//
// # Events
//
// Every applied command emits Events to the Broadcaster while the lock is
// still held, so all players see state changes in command order. A Deal
// emits its side effects, then (at showdown) a RoundResultEvent, then a
// GameStateEvent, a UsersEvent and finally a TurnEvent once the turn has
// moved on.
//
// # Deterministic Testing
//
// Inject the random source and clock:
//
//	s := game.NewSession("main", b,
//	    game.WithRand(randutil.New(42)),
//	    game.WithClock(quartz.NewMock(t)))
//
// # Showdowns
//
// RandomResolver (the default) picks a winner among the players who have
// not folded without looking at cards. RankedResolver scores hands with
// internal/evaluator.
package game
