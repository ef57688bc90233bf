package game

import "math/rand"

// HandSize is the number of cards every player starts with. The prize deck
// has the same size, so a game always lasts exactly HandSize rounds.
const HandSize = 15

// NewPrizeDeck builds the undealt point-card pool: -5..-1 and 1..10.
func NewPrizeDeck() CardStack {
	stack := make(CardStack, 0, HandSize)
	for i := -5; i <= -1; i++ {
		stack = append(stack, i)
	}
	for i := 1; i <= 10; i++ {
		stack = append(stack, i)
	}
	return stack
}

// NewHand builds a fresh player hand: 1..15.
func NewHand() CardStack {
	stack := make(CardStack, 0, HandSize)
	for i := 1; i <= HandSize; i++ {
		stack = append(stack, i)
	}
	return stack
}

// PopRandom removes and returns a uniformly-random card from the stack.
func PopRandom(stack *CardStack) (Card, error) {
	s := *stack
	if len(s) == 0 {
		return 0, ErrEmptyDeck
	}
	i := rand.Intn(len(s))
	card := s[i]
	s[i] = s[len(s)-1]
	*stack = s[:len(s)-1]
	return card, nil
}

// Sum returns the total value of a card stack.
func Sum(cards CardStack) int {
	total := 0
	for _, c := range cards {
		total += c
	}
	return total
}

// ResolveWinner picks the winning player for a set of bets. Bets shared by
// more than one player are ties and eliminated. Among the remaining unique
// bets the highest card wins when the pool total is positive, the lowest
// when it is zero or negative. Returns false when every bet is contested or
// there are no bets at all.
func ResolveWinner(bets map[string]Card, poolTotal int) (string, bool) {
	byCard := make(map[Card][]string, len(bets))
	for playerID, card := range bets {
		byCard[card] = append(byCard[card], playerID)
	}

	var bestCard Card
	var bestPlayer string
	found := false
	for card, players := range byCard {
		if len(players) != 1 {
			continue
		}
		better := false
		if poolTotal > 0 {
			better = card > bestCard
		} else {
			better = card < bestCard
		}
		if !found || better {
			bestCard = card
			bestPlayer = players[0]
			found = true
		}
	}
	return bestPlayer, found
}
