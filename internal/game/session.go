package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Session owns one game: its members, round history and prize deck. All
// mutation happens under mu; the autoplay timer re-enters through the
// registry by session and round id, so a late fire observes the round
// already advanced and becomes a no-op.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	state     State
	players   map[string]*Player
	current   *Round
	previous  []Round
	prizeDeck CardStack

	betTimeout time.Duration
	timer      *time.Timer
	onDeadline func(sessionID string, roundID int)
}

func newSession(id string, betTimeout time.Duration, onDeadline func(sessionID string, roundID int)) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		state:      StateWaiting,
		players:    make(map[string]*Player),
		prizeDeck:  NewPrizeDeck(),
		betTimeout: betTimeout,
		onDeadline: onDeadline,
	}
}

// LeaveResult reports what a departure caused, so the transport layer knows
// which pushes are due.
type LeaveResult struct {
	Empty   bool   // session has no members left and was torn down
	Started bool   // departure made the remaining members unanimously ready
	Closed  *Round // departure completed the current round's bets
	Ended   bool   // the close above exhausted the prize deck
}

// Join adds a player. Only permitted while waiting and below capacity.
func (s *Session) Join(playerID string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWaiting {
		return nil, ErrInvalidState
	}
	if len(s.players) >= MaxPlayers {
		return nil, ErrGameFull
	}
	p := &Player{
		ID:             playerID,
		SessionID:      s.ID,
		Color:          s.nextColorLocked(),
		RemainingCards: NewHand(),
		WonRounds:      []int{},
		JoinedAt:       time.Now().UTC(),
	}
	s.players[playerID] = p
	return p, nil
}

// nextColorLocked assigns the first palette color no current member holds.
// With capacity equal to the palette size the fallback is unreachable; it is
// kept deterministic (indexed by member count) as a guard.
func (s *Session) nextColorLocked() string {
	for _, color := range palette {
		taken := false
		for _, p := range s.players {
			if p.Color == color {
				taken = true
				break
			}
		}
		if !taken {
			return color
		}
	}
	return palette[len(s.players)%len(palette)]
}

// Leave removes a player in any state. An empty session cancels its timer
// and reports Empty so the registry can tear it down. A departure while
// waiting can make the rest unanimously ready; a departure while playing
// withdraws the leaver's bet and can complete the round.
func (s *Session) Leave(playerID string) LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.players, playerID)
	if s.current != nil {
		delete(s.current.Bets, playerID)
	}

	if len(s.players) == 0 {
		s.stopTimerLocked()
		return LeaveResult{Empty: true}
	}

	res := LeaveResult{}
	switch s.state {
	case StateWaiting:
		if s.allReadyLocked() {
			s.startLocked()
			res.Started = true
		}
	case StatePlaying:
		if s.current != nil && len(s.current.Bets) == len(s.players) {
			closed, ended := s.closeRoundLocked()
			res.Closed = &closed
			res.Ended = ended
		}
	}
	return res
}

// SetReady toggles the ready flag while waiting. The transition to ready
// may make the room unanimous and start play.
func (s *Session) SetReady(playerID string, ready bool) (started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateWaiting {
		return false, ErrInvalidState
	}
	p, ok := s.players[playerID]
	if !ok {
		return false, ErrNotInSession
	}
	p.Ready = ready
	if ready && s.allReadyLocked() {
		s.startLocked()
		return true, nil
	}
	return false, nil
}

func (s *Session) allReadyLocked() bool {
	if len(s.players) == 0 {
		return false
	}
	for _, p := range s.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// startLocked transitions Waiting -> Playing: pops the first prize card,
// opens round 0 and arms the autoplay timer.
func (s *Session) startLocked() {
	s.state = StatePlaying
	prize, err := PopRandom(&s.prizeDeck)
	if err != nil {
		// fresh deck, cannot happen
		log.Error().Err(err).Str("session", s.ID).Msg("prize deck empty at start")
		return
	}
	s.current = &Round{
		ID:        0,
		Bets:      make(map[string]Card),
		PrizePool: CardStack{prize},
	}
	s.armTimerLocked(0)
}

// PlaceBet records a bet for the current round. Rebetting overwrites (last
// write wins). When every member has a bet the round closes immediately,
// ahead of the timer.
func (s *Session) PlaceBet(playerID string, card Card) (closed *Round, ended bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying || s.current == nil {
		return nil, false, ErrInvalidState
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, false, ErrNotInSession
	}
	if !contains(p.RemainingCards, card) {
		return nil, false, ErrInvalidCard
	}
	s.current.Bets[playerID] = card

	if len(s.current.Bets) == len(s.players) {
		r, end := s.closeRoundLocked()
		return &r, end, nil
	}
	return nil, false, nil
}

// closeRoundLocked resolves the current round: fills missing bets with a
// random card from the owner's hand, applies the winner rule, consumes every
// bet card, archives the round and either ends the game or opens the next
// round (carrying the pool over on a full tie).
func (s *Session) closeRoundLocked() (Round, bool) {
	s.stopTimerLocked()
	round := s.current

	// autoplay for members without a bet
	for id, p := range s.players {
		if _, ok := round.Bets[id]; ok {
			continue
		}
		round.Bets[id] = p.RemainingCards[rand.Intn(len(p.RemainingCards))]
	}

	poolTotal := Sum(round.PrizePool)
	winnerID, hasWinner := ResolveWinner(round.Bets, poolTotal)
	if hasWinner {
		if winner, ok := s.players[winnerID]; ok {
			round.Winner = winnerID
			winner.TotalScore += poolTotal
			winner.WonRounds = append(winner.WonRounds, round.ID)
		}
	}

	// the bet card is consumed, won or not
	for id, p := range s.players {
		p.RemainingCards = removeCard(p.RemainingCards, round.Bets[id])
	}

	s.previous = append(s.previous, *round)

	if len(s.prizeDeck) == 0 {
		s.state = StateEnded
		s.current = nil
		return *round, true
	}

	prize, err := PopRandom(&s.prizeDeck)
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("prize deck empty on round open")
		s.state = StateEnded
		s.current = nil
		return *round, true
	}
	next := &Round{
		ID:        round.ID + 1,
		Bets:      make(map[string]Card),
		PrizePool: CardStack{prize},
	}
	if !hasWinner {
		// nobody won, the pool carries over
		next.PrizePool = append(next.PrizePool, round.PrizePool...)
	}
	s.current = next
	s.armTimerLocked(next.ID)
	return *round, false
}

// resolveDeadline is the timer entry point. It no-ops unless the given round
// is still the open one; whoever got the mutex first already closed it.
func (s *Session) resolveDeadline(roundID int) (*Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying || s.current == nil || s.current.ID != roundID {
		return nil, false
	}
	closed, ended := s.closeRoundLocked()
	return &closed, ended
}

// armTimerLocked schedules the autoplay deadline for the given round. Any
// previous timer is stopped first so exactly one is pending while playing.
// A non-positive timeout disables the timer.
func (s *Session) armTimerLocked(roundID int) {
	s.stopTimerLocked()
	if s.betTimeout <= 0 || s.onDeadline == nil {
		return
	}
	s.timer = time.AfterFunc(s.betTimeout, func() {
		s.onDeadline(s.ID, roundID)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// State returns the session lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerCount returns the number of members.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// PlayerIDs returns the ids of all current members.
func (s *Session) PlayerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	return ids
}

// Joinable reports whether the session accepts new members.
func (s *Session) Joinable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateWaiting && len(s.players) < MaxPlayers
}

// TimerArmed reports whether an autoplay deadline is pending.
func (s *Session) TimerArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func contains(cards CardStack, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

func removeCard(cards CardStack, card Card) CardStack {
	for i, c := range cards {
		if c == card {
			return append(cards[:i], cards[i+1:]...)
		}
	}
	return cards
}
