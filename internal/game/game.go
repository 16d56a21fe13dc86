package game

import "slices"

type TurnMode string

const (
	ModeFirstCard TurnMode = "first_card"
	ModeLay       TurnMode = "lay"
	ModeBid       TurnMode = "bid"
	ModeGuess     TurnMode = "guess"
)

// Pass is the bid value recorded for a player who dropped out of the bidding.
const Pass = -1

type Reveal struct {
	Player int `json:"player"`
	Card   int `json:"card"`
}

// GameState is the authoritative state of one running game. Values are treated
// as immutable: transitions work on a Clone and publish the copy.
type GameState struct {
	NumPlayers        int      `json:"numPlayers"`
	RoundCount        int      `json:"roundCount"`
	LastRoundBeginner int      `json:"lastRoundBeginner"`
	CurrentTurn       int      `json:"currentTurn"`
	CurrentTurnMode   TurnMode `json:"currentTurnMode"`
	CardsAvailable    [][]Card `json:"cardsAvailable"`
	CardsInHand       [][]Card `json:"cardsInHand"`
	CardsOnTable      [][]Card `json:"cardsOnTable"`
	Bids              []int    `json:"bids"`
	RevealedCards     []Reveal `json:"revealedCards"`
	Points            []int    `json:"points"`
}

func NewGameState(numPlayers int, rules Rules) GameState {
	available := make([][]Card, numPlayers)
	for i := range available {
		available[i] = slices.Clone(rules.Deck)
	}
	return roundStart(numPlayers, 0, numPlayers-1, make([]int, numPlayers), available)
}

func roundStart(numPlayers, round, lastBeginner int, points []int, available [][]Card) GameState {
	hands := make([][]Card, numPlayers)
	tables := make([][]Card, numPlayers)
	for i := range numPlayers {
		hands[i] = slices.Clone(available[i])
		tables[i] = []Card{}
	}
	return GameState{
		NumPlayers:        numPlayers,
		RoundCount:        round,
		LastRoundBeginner: lastBeginner,
		CurrentTurn:       0,
		CurrentTurnMode:   ModeFirstCard,
		CardsAvailable:    available,
		CardsInHand:       hands,
		CardsOnTable:      tables,
		Bids:              make([]int, numPlayers),
		RevealedCards:     []Reveal{},
		Points:            points,
	}
}

// NextRound resets all per-round state. Only the player count, the last
// round's beginner, the given points and the remaining decks carry over.
func (s GameState) NextRound(points []int, available [][]Card) GameState {
	return roundStart(s.NumPlayers, s.RoundCount+1, s.LastRoundBeginner, slices.Clone(points), cloneCards(available))
}

func (s GameState) Clone() GameState {
	c := s
	c.CardsAvailable = cloneCards(s.CardsAvailable)
	c.CardsInHand = cloneCards(s.CardsInHand)
	c.CardsOnTable = cloneCards(s.CardsOnTable)
	c.Bids = slices.Clone(s.Bids)
	c.RevealedCards = slices.Clone(s.RevealedCards)
	c.Points = slices.Clone(s.Points)
	return c
}

func (s GameState) TableCount() int {
	total := 0
	for _, table := range s.CardsOnTable {
		total += len(table)
	}
	return total
}

func (s GameState) MaxBid() int {
	return slices.Max(s.Bids)
}

func (s GameState) IsRevealed(player, card int) bool {
	return slices.Contains(s.RevealedCards, Reveal{Player: player, Card: card})
}

func (s GameState) RevealedOf(player int) int {
	n := 0
	for _, r := range s.RevealedCards {
		if r.Player == player {
			n++
		}
	}
	return n
}

func cloneCards(in [][]Card) [][]Card {
	out := make([][]Card, len(in))
	for i, cards := range in {
		out[i] = slices.Clone(cards)
		if out[i] == nil {
			out[i] = []Card{}
		}
	}
	return out
}

type RevealedCard struct {
	Index int  `json:"index"`
	Card  Card `json:"card"`
}

// PlayerGameState is the view of a game handed to a single player. Other
// players' hands, decks and face-down table cards are reduced to counts.
type PlayerGameState struct {
	PlayerIndex         int                    `json:"playerIndex"`
	NumPlayers          int                    `json:"numPlayers"`
	RoundCount          int                    `json:"roundCount"`
	LastRoundBeginner   int                    `json:"lastRoundBeginner"`
	CurrentTurn         int                    `json:"currentTurn"`
	CurrentTurnMode     TurnMode               `json:"currentTurnMode"`
	OwnCardsAvailable   []Card                 `json:"ownCardsAvailable"`
	CardsAvailableCount []int                  `json:"cardsAvailableCount"`
	OwnCardsOnTable     []Card                 `json:"ownCardsOnTable"`
	CardsOnTableCount   []int                  `json:"cardsOnTableCount"`
	OwnCardsInHand      []Card                 `json:"ownCardsInHand"`
	CardsInHandCount    []int                  `json:"cardsInHandCount"`
	Bids                []int                  `json:"bids"`
	RevealedCards       map[int][]RevealedCard `json:"revealedCards"`
	Points              []int                  `json:"points"`
}
