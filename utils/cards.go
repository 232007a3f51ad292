package utils

import (
	"fmt"
	rand "math/rand/v2"
	"strings"
)

// Card represents a playing card
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// NewCard creates a new card
func NewCard(rank, suit string) Card {
	return Card{
		Rank: rank,
		Suit: suit,
	}
}

// String returns the string representation of a card
func (c Card) String() string {
	return c.Rank + c.Suit
}

// Value returns the blackjack value of the card, aces counted as 11
func (c Card) Value() int {
	if value, exists := CardRanks[c.Rank]; exists {
		return value
	}
	return 0
}

// IsAce checks if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// IsTen checks if the card has a value of 10 (10, J, Q, K)
func (c Card) IsTen() bool {
	return c.Rank == "10" || c.Rank == "J" || c.Rank == "Q" || c.Rank == "K"
}

// ParseCard reads a short card form such as "A", "10", "K♠️" or "Qh".
// Cards without a suit get spades.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	for _, rank := range []string{"10", "A", "2", "3", "4", "5", "6", "7", "8", "9", "J", "Q", "K"} {
		if !strings.HasPrefix(strings.ToUpper(s), rank) {
			continue
		}
		suit := s[len(rank):]
		switch strings.ToLower(suit) {
		case "", "s":
			suit = CardSuits[0]
		case "h":
			suit = CardSuits[1]
		case "d":
			suit = CardSuits[2]
		case "c":
			suit = CardSuits[3]
		}
		return NewCard(rank, suit), nil
	}
	return Card{}, fmt.Errorf("invalid card %q", s)
}

// MustCards parses a list of short card forms, panicking on bad input.
// Intended for fixed tables and tests.
func MustCards(specs ...string) []Card {
	cards := make([]Card, 0, len(specs))
	for _, s := range specs {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// Shoe is the working stack of cards for a blackjack table. Cards leave
// the shoe when drawn and only come back through Discard.
type Shoe struct {
	Cards    []Card `json:"cards"`
	NumDecks int    `json:"num_decks"`
	Dealt    int    `json:"dealt"`
	Discards []Card `json:"discards,omitempty"`
	rng      *rand.Rand
}

func standardDeck() []Card {
	cards := make([]Card, 0, len(CardSuits)*len(CardRankOrder))
	for _, suit := range CardSuits {
		for _, rank := range CardRankOrder {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// NewShoe creates a shuffled shoe of numDecks standard decks
func NewShoe(numDecks int, rng *rand.Rand) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	shoe := &Shoe{
		Cards:    make([]Card, 0, numDecks*52),
		NumDecks: numDecks,
		rng:      rng,
	}
	for d := 0; d < numDecks; d++ {
		shoe.Cards = append(shoe.Cards, standardDeck()...)
	}

	shoe.Shuffle()
	return shoe
}

// NewStackedShoe creates a shoe that deals cards in exactly the given order
func NewStackedShoe(cards ...Card) *Shoe {
	return &Shoe{
		Cards:    append([]Card(nil), cards...),
		NumDecks: 0,
	}
}

// Shuffle shuffles the undealt cards
func (s *Shoe) Shuffle() {
	if s.rng != nil {
		rest := s.Cards[s.Dealt:]
		s.rng.Shuffle(len(rest), func(i, j int) {
			rest[i], rest[j] = rest[j], rest[i]
		})
	}
}

// Discard returns finished cards to the shoe's discard pile
func (s *Shoe) Discard(cards ...Card) {
	s.Discards = append(s.Discards, cards...)
}

// refill rebuilds an exhausted shoe from the discard pile. Cards still in
// hands are never in the pile. With nothing discarded a fresh deck is opened.
func (s *Shoe) refill() {
	cards := s.Discards
	s.Discards = nil
	if len(cards) == 0 {
		cards = standardDeck()
	}
	s.Cards = cards
	s.Dealt = 0
	s.Shuffle()
}

// Draw deals one card from the shoe, refilling it when it runs dry
func (s *Shoe) Draw() Card {
	if s.Dealt >= len(s.Cards) {
		s.refill()
	}

	card := s.Cards[s.Dealt]
	s.Dealt++
	return card
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	return len(s.Cards) - s.Dealt
}

// ShoeDecksFor sizes a shoe for the number of players: one deck per two, capped.
func ShoeDecksFor(players int) int {
	decks := (players + PlayersPerDeck - 1) / PlayersPerDeck
	if decks < 1 {
		decks = 1
	}
	if decks > MaxShoeDecks {
		decks = MaxShoeDecks
	}
	return decks
}

// ShoeIsLow reports whether a shoe with remaining cards cannot safely serve a round
func ShoeIsLow(remaining, players int) bool {
	return remaining < LowShoeCardsPerSeat*(players+1)
}

// Hand represents a hand of playing cards
type Hand struct {
	Cards []Card `json:"cards"`
}

// NewHand creates a new hand
func NewHand(cards ...Card) *Hand {
	return &Hand{
		Cards: append(make([]Card, 0, 4), cards...),
	}
}

// AddCard adds a card to the hand
func (h *Hand) AddCard(card Card) {
	h.Cards = append(h.Cards, card)
}

// Value calculates the blackjack hand value. Aces start at 11 and are
// demoted to 1 one at a time while the total is over 21.
func (h *Hand) Value() int {
	total := 0
	aces := 0

	for _, card := range h.Cards {
		if card.IsAce() {
			aces++
		}
		total += card.Value()
	}

	for aces > 0 && total > BlackjackValue {
		total -= 10
		aces--
	}

	return total
}

// String returns string representation of the hand
func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, card := range h.Cards {
		parts[i] = "[" + card.String() + "]"
	}
	return strings.Join(parts, " ")
}

// IsBlackjack checks if the hand is a natural blackjack (21 with 2 cards)
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == BlackjackValue
}

// IsBust checks if the hand is over 21
func (h *Hand) IsBust() bool {
	return h.Value() > BlackjackValue
}

// IsSoft checks if the hand contains an Ace still counted as 11
func (h *Hand) IsSoft() bool {
	hard := 0
	hasAce := false
	for _, card := range h.Cards {
		if card.IsAce() {
			hasAce = true
			hard++
		} else {
			hard += card.Value()
		}
	}
	return hasAce && hard+10 <= BlackjackValue
}

// CanSplit checks if the hand is two cards of the same rank or two ten-valued cards
func (h *Hand) CanSplit() bool {
	if len(h.Cards) != 2 {
		return false
	}
	a, b := h.Cards[0], h.Cards[1]
	return a.Rank == b.Rank || (a.IsTen() && b.IsTen())
}

// Count returns the number of cards in the hand
func (h *Hand) Count() int {
	return len(h.Cards)
}
