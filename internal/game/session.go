package game

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/randutil"
)

// DefaultStartingChips is the stack a player is seated with
const DefaultStartingChips = 100

// Session is one game room: its roster, turn order, round state and deck.
// Every command runs to completion under a single lock, and events are
// handed to the Broadcaster before the lock is released so all players
// observe them in command order.
type Session struct {
	mu sync.Mutex

	name      string
	roster    *Roster
	turns     TurnScheduler
	state     RoundState
	deck      *deck.Deck
	dealerID  string
	showCards bool
	round     int

	startingChips int
	resolver      Resolver
	recorder      RoundRecorder
	out           Broadcaster
	rng           *rand.Rand
	clock         quartz.Clock
	logger        *log.Logger
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the random source used for shuffling and random resolution
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithClock sets the clock used for join stamps and round results
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithLogger sets the session logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithResolver sets how showdowns are decided
func WithResolver(r Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithStartingChips sets the stack new players are seated with
func WithStartingChips(chips int) Option {
	return func(s *Session) { s.startingChips = chips }
}

// WithRecorder sets a recorder notified of every finished round
func WithRecorder(r RoundRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

// NewSession creates an empty session in the waiting phase
func NewSession(name string, out Broadcaster, opts ...Option) *Session {
	s := &Session{
		name:          name,
		roster:        NewRoster(),
		startingChips: DefaultStartingChips,
		resolver:      RandomResolver{},
		out:           out,
		clock:         quartz.NewReal(),
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.out == nil {
		s.out = discardBroadcaster{}
	}
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed(0))
	}
	s.logger = s.logger.With("room", name)
	s.deck = deck.NewShuffled(s.rng)
	return s
}

// Name returns the room name
func (s *Session) Name() string {
	return s.name
}

// Join seats a new player. A player joining mid-round sits out, folded
// and without cards, until the next deal.
func (s *Session) Join(id, name string) (PlayerView, Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.logger.Debug("Ignoring join without id", "name", name)
		return PlayerView{}, IgnoredInvalid
	}

	p := &Player{
		ID:     id,
		Name:   name,
		Chips:  s.startingChips,
		Folded: s.state.Phase != Waiting,
	}
	if !s.roster.Add(p, s.clock.Now()) {
		s.logger.Debug("Ignoring duplicate join", "player", id)
		return PlayerView{}, IgnoredInvalid
	}
	s.turns.Add(id)
	if s.dealerID == "" {
		s.dealerID = s.roster.Host()
	}

	s.logger.Info("Player joined", "player", id, "name", name, "players", s.roster.Len(), "host", s.roster.Host())

	s.emitRoster()
	s.out.SendTo(id, YourIDEvent{PlayerID: id})
	s.out.SendTo(id, ShowCardsEvent{Show: s.showCards})

	view, _ := s.roster.View(id)
	return view, Applied
}

// Leave removes a player. If the dealer leaves, dealing passes to the
// new host.
func (s *Session) Leave(id string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roster.Remove(id); !ok {
		s.logger.Debug("Ignoring leave for unknown player", "player", id)
		return IgnoredInvalid
	}
	s.turns.Remove(id)
	if s.dealerID == id {
		s.dealerID = s.roster.Host()
	}

	s.logger.Info("Player left", "player", id, "players", s.roster.Len(), "host", s.roster.Host(), "dealer", s.dealerID)

	s.emitRoster()
	return Applied
}

// Act applies a move by the player holding the turn, then passes the turn
// on. Bets are not checked against the player's stack or the current bet,
// only against integer overflow. A folded player keeps the turn only when
// nobody else can take it, and may not act with it.
func (s *Session) Act(id string, action Action) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.turns.Current() != id || id == "" {
		s.logger.Debug("Ignoring out of turn action", "player", id, "action", action, "turn", s.turns.Current())
		return IgnoredNotYourTurn
	}
	p, _ := s.roster.Get(id)
	if p.Folded {
		s.logger.Debug("Ignoring action from folded player", "player", id, "action", action)
		return IgnoredInvalid
	}

	switch a := action.(type) {
	case Fold:
		p.Folded = true
	case Bet:
		if a.Amount < 0 || a.Amount > math.MaxInt-s.state.Pot || p.Chips < math.MinInt+a.Amount {
			s.logger.Debug("Ignoring bet that overflows", "player", id, "amount", a.Amount, "pot", s.state.Pot, "chips", p.Chips)
			return IgnoredInvalid
		}
		p.Bet += a.Amount
		p.Chips -= a.Amount
		s.state.Pot += a.Amount
		s.state.CurrentBet = a.Amount
	default:
		s.logger.Debug("Ignoring unsupported action", "player", id, "action", action)
		return IgnoredInvalid
	}

	s.logger.Info("Player acted", "player", id, "action", action, "pot", s.state.Pot)

	s.advanceTurn()
	s.out.Broadcast(UsersEvent{Users: s.roster.Views()})
	s.out.Broadcast(TurnEvent{PlayerID: s.turns.Current()})
	return Applied
}

// Deal moves the round to its next phase. Only the dealer may deal.
func (s *Session) Deal(id string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || id != s.dealerID {
		s.logger.Debug("Ignoring deal from non-dealer", "player", id, "dealer", s.dealerID)
		return IgnoredNotAuthorized
	}

	switch s.state.Phase {
	case Waiting:
		if !s.dealHoleCards() {
			return IgnoredInvalid
		}
	case PreFlop, Flop, Turn:
		next := s.state.Phase.Next()
		cards, err := s.deck.DealFromTop(next.communityCards())
		if err != nil {
			s.logger.Error("Failed to deal community cards", "phase", next, "error", err)
			return IgnoredInvalid
		}
		s.state.Community = append(s.state.Community, cards...)
		s.state.Phase = next
	case River:
		s.state.Phase = Showdown
		result := s.resolve()
		s.out.Broadcast(RoundResultEvent{RoundResult: result})
		if s.recorder != nil {
			s.recorder.RecordRound(result)
		}
	}

	s.logger.Info("Dealt", "phase", s.state.Phase, "community", len(s.state.Community), "pot", s.state.Pot)

	s.out.Broadcast(s.gameState())
	s.out.Broadcast(UsersEvent{Users: s.roster.Views()})
	s.advanceTurn()
	s.out.Broadcast(TurnEvent{PlayerID: s.turns.Current()})
	return Applied
}

// ToggleShowCards flips the session-wide reveal flag. Host only.
func (s *Session) ToggleShowCards(id string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || id != s.roster.Host() {
		s.logger.Debug("Ignoring show cards from non-host", "player", id)
		return IgnoredNotAuthorized
	}
	s.showCards = !s.showCards
	s.logger.Info("Show cards toggled", "show", s.showCards)
	s.out.Broadcast(ShowCardsEvent{Show: s.showCards})
	return Applied
}

// ChooseDealer hands the deal to another seated player. Host only.
func (s *Session) ChooseDealer(id, dealerID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || id != s.roster.Host() {
		s.logger.Debug("Ignoring choose dealer from non-host", "player", id)
		return IgnoredNotAuthorized
	}
	if _, ok := s.roster.Get(dealerID); !ok {
		s.logger.Debug("Ignoring unknown dealer", "dealer", dealerID)
		return IgnoredInvalid
	}
	s.dealerID = dealerID
	s.logger.Info("Dealer chosen", "dealer", dealerID)
	s.out.Broadcast(DealerEvent{DealerID: dealerID})
	return Applied
}

// dealHoleCards starts a round: a fresh deck unless nothing has been dealt
// from the current one, then two cards to each player in turn order.
func (s *Session) dealHoleCards() bool {
	order := s.turns.Order()
	if !s.deck.IsFresh() {
		s.deck = deck.NewShuffled(s.rng)
	}
	if need := 2 * len(order); need > s.deck.Remaining() {
		s.logger.Warn("Not enough cards for every player", "players", len(order), "remaining", s.deck.Remaining())
		return false
	}
	for _, id := range order {
		p, _ := s.roster.Get(id)
		p.Hand = p.Hand[:0]
		p.Folded = false
		for range 2 {
			c, err := s.deck.Pop()
			if err != nil {
				s.logger.Error("Failed to deal hole card", "player", id, "error", err)
				return false
			}
			p.Hand = append(p.Hand, c)
		}
	}
	s.round++
	s.state.Phase = PreFlop
	return true
}

// resolve pays the pot to the winner and resets the round
func (s *Session) resolve() RoundResult {
	result := RoundResult{
		Room:      s.name,
		Round:     s.round,
		Amount:    s.state.Pot,
		Community: append([]deck.Card(nil), s.state.Community...),
		At:        s.clock.Now(),
	}

	var contenders []*Player
	for _, id := range s.turns.Order() {
		if p, _ := s.roster.Get(id); !p.Folded {
			contenders = append(contenders, p)
		}
	}

	if len(contenders) == 0 {
		refunded := 0
		for _, id := range s.turns.Order() {
			p, _ := s.roster.Get(id)
			p.Chips += p.Bet
			refunded += p.Bet
		}
		// bets of players who left have nobody to go back to
		result.Refunded = true
		result.Forfeited = s.state.Pot - refunded
		s.logger.Info("Everyone folded, bets refunded", "round", s.round, "pot", s.state.Pot, "forfeited", result.Forfeited)
	} else {
		res := s.resolver.Resolve(contenders, s.state.Community, s.rng)
		res.Winner.Chips += s.state.Pot
		result.WinnerID = res.Winner.ID
		result.WinnerName = res.Winner.Name
		result.Hand = res.Hand
		s.logger.Info("Round won", "round", s.round, "winner", res.Winner.ID, "amount", s.state.Pot, "hand", res.Hand)
	}

	s.state = RoundState{Phase: Waiting}
	for _, id := range s.turns.Order() {
		p, _ := s.roster.Get(id)
		p.resetForRound()
	}
	s.deck = deck.NewShuffled(s.rng)
	return result
}

func (s *Session) advanceTurn() {
	s.turns.Advance(func(id string) bool {
		p, ok := s.roster.Get(id)
		return !ok || p.Folded
	})
}

func (s *Session) gameState() GameStateEvent {
	return GameStateEvent{
		Phase:          s.state.Phase,
		CommunityCards: append([]deck.Card{}, s.state.Community...),
		Pot:            s.state.Pot,
		CurrentBet:     s.state.CurrentBet,
	}
}

// emitRoster broadcasts the full roster state: players, turn and dealer
func (s *Session) emitRoster() {
	s.out.Broadcast(UsersEvent{Users: s.roster.Views()})
	s.out.Broadcast(TurnEvent{PlayerID: s.turns.Current()})
	s.out.Broadcast(DealerEvent{DealerID: s.dealerID})
}

// Snapshot is a point-in-time copy of the session state
type Snapshot struct {
	Room       string       `json:"room"`
	Phase      Phase        `json:"phase"`
	Pot        int          `json:"pot"`
	CurrentBet int          `json:"currentBet"`
	Community  []deck.Card  `json:"communityCards"`
	Players    []PlayerView `json:"players"` // turn order
	Turn       string       `json:"turn"`
	TurnIndex  int          `json:"turnIndex"`
	Host       string       `json:"host"`
	Dealer     string       `json:"dealer"`
	ShowCards  bool         `json:"showCards"`
	Round      int          `json:"round"`
	DeckSize   int          `json:"deckSize"`
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Room:       s.name,
		Phase:      s.state.Phase,
		Pot:        s.state.Pot,
		CurrentBet: s.state.CurrentBet,
		Community:  append([]deck.Card{}, s.state.Community...),
		Turn:       s.turns.Current(),
		TurnIndex:  s.turns.Index(),
		Host:       s.roster.Host(),
		Dealer:     s.dealerID,
		ShowCards:  s.showCards,
		Round:      s.round,
		DeckSize:   s.deck.Remaining(),
	}
	for _, id := range s.turns.Order() {
		view, _ := s.roster.View(id)
		snap.Players = append(snap.Players, view)
	}
	return snap
}

// Cards returns every card in play: the deck, each hand and the board.
// Used to check that a round never duplicates or loses a card.
func (s *Session) Cards() []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.deck.Cards()
	for _, id := range s.turns.Order() {
		p, _ := s.roster.Get(id)
		cards = append(cards, p.Hand...)
	}
	return append(cards, s.state.Community...)
}
