package game

import "sort"

// HiddenBet is the sentinel sent in place of another player's live bet.
const HiddenBet Card = -1

// Snapshot is an immutable per-viewer copy of a session, safe to hand to
// the transport layer outside the session's lock.
type Snapshot struct {
	ID             string   `json:"id"`
	State          State    `json:"state"`
	Players        []Player `json:"players"`
	CurrentRound   *Round   `json:"currentRound"`
	PreviousRounds []Round  `json:"previousRounds"`
	CardsLeft      int      `json:"cardsLeft"`
}

// SnapshotFor builds the view of the session for one recipient. Every other
// player's bet in the current round is replaced by HiddenBet; the viewer's
// own bet and all closed rounds are shown in full.
func (s *Session) SnapshotFor(viewerID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, copyPlayer(p))
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	snap := Snapshot{
		ID:             s.ID,
		State:          s.state,
		Players:        players,
		PreviousRounds: make([]Round, 0, len(s.previous)),
		CardsLeft:      len(s.prizeDeck),
	}
	for _, r := range s.previous {
		snap.PreviousRounds = append(snap.PreviousRounds, copyRound(r))
	}
	if s.current != nil {
		cur := copyRound(*s.current)
		for id := range cur.Bets {
			if id != viewerID {
				cur.Bets[id] = HiddenBet
			}
		}
		snap.CurrentRound = &cur
	}
	return snap
}

func copyPlayer(p *Player) Player {
	c := *p
	c.RemainingCards = append(CardStack{}, p.RemainingCards...)
	c.WonRounds = append([]int{}, p.WonRounds...)
	return c
}

func copyRound(r Round) Round {
	c := r
	c.Bets = make(map[string]Card, len(r.Bets))
	for id, bet := range r.Bets {
		c.Bets[id] = bet
	}
	c.PrizePool = append(CardStack{}, r.PrizePool...)
	return c
}
