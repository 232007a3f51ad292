package roulette

import (
	"fmt"
	"strconv"
	"strings"

	"ccasino/utils"
)

var redNumbers = map[int]struct{}{1: {}, 3: {}, 5: {}, 7: {}, 9: {}, 12: {}, 14: {}, 16: {}, 18: {}, 19: {}, 21: {}, 23: {}, 25: {}, 27: {}, 30: {}, 32: {}, 34: {}, 36: {}}
var blackNumbers = map[int]struct{}{2: {}, 4: {}, 6: {}, 8: {}, 10: {}, 11: {}, 13: {}, 15: {}, 17: {}, 20: {}, 22: {}, 24: {}, 26: {}, 28: {}, 29: {}, 31: {}, 33: {}, 35: {}}

// Kind is what a roulette bet covers
type Kind string

const (
	KindSingle Kind = "single"
	KindRed    Kind = "red"
	KindBlack  Kind = "black"
	KindEven   Kind = "even"
	KindOdd    Kind = "odd"
	KindLow    Kind = "1-18"
	KindHigh   Kind = "19-36"
	KindDozen1 Kind = "1-12"
	KindDozen2 Kind = "13-24"
	KindDozen3 Kind = "25-36"
)

var namedKinds = map[string]Kind{
	"red": KindRed, "black": KindBlack, "even": KindEven, "odd": KindOdd,
	"1-18": KindLow, "19-36": KindHigh,
	"1-12": KindDozen1, "13-24": KindDozen2, "25-36": KindDozen3,
}

// Target is the kind of a bet plus its number for single bets
type Target struct {
	Kind   Kind `json:"kind"`
	Number int  `json:"number,omitempty"`
}

func (t Target) String() string {
	if t.Kind == KindSingle {
		return strconv.Itoa(t.Number)
	}
	return string(t.Kind)
}

// ParseTarget reads a bet kind keyword or a single number 0-36
func ParseTarget(raw string) (Target, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if kind, ok := namedKinds[raw]; ok {
		return Target{Kind: kind}, true
	}
	if raw == "" {
		return Target{}, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return Target{}, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n >= utils.RouletteNumbers {
		return Target{}, false
	}
	return Target{Kind: KindSingle, Number: n}, true
}

// Colour returns "red", "black" or "green" for a wheel number
func Colour(n int) string {
	if _, ok := redNumbers[n]; ok {
		return "red"
	}
	if _, ok := blackNumbers[n]; ok {
		return "black"
	}
	return "green"
}

// NumberText renders a winning number with its colour
func NumberText(n int) string {
	switch Colour(n) {
	case "red":
		return fmt.Sprintf("%d red 🟥", n)
	case "black":
		return fmt.Sprintf("%d black ⬛", n)
	default:
		return fmt.Sprintf("%d 🟩", n)
	}
}

// Multiple returns the total returned per credit staked on target when
// number wins, or zero when the bet loses. Zero only pays single bets.
func Multiple(target Target, number int) int64 {
	if target.Kind == KindSingle {
		if target.Number == number {
			return utils.SingleNumberMultiple
		}
		return 0
	}
	if number == 0 {
		return 0
	}

	hit := false
	var multiple int64 = utils.EvenMoneyMultiple
	switch target.Kind {
	case KindRed:
		hit = Colour(number) == "red"
	case KindBlack:
		hit = Colour(number) == "black"
	case KindEven:
		hit = number%2 == 0
	case KindOdd:
		hit = number%2 == 1
	case KindLow:
		hit = number >= 1 && number <= 18
	case KindHigh:
		hit = number >= 19 && number <= 36
	case KindDozen1:
		hit, multiple = number >= 1 && number <= 12, utils.DozenMultiple
	case KindDozen2:
		hit, multiple = number >= 13 && number <= 24, utils.DozenMultiple
	case KindDozen3:
		hit, multiple = number >= 25 && number <= 36, utils.DozenMultiple
	}
	if !hit {
		return 0
	}
	return multiple
}

// Settle computes the payout of one bet. Forfeit and credit stakes pay the
// same number of credits on a win; a forfeit loss is applied by the caller.
func Settle(bet Bet, number int) utils.Payout {
	m := Multiple(bet.Target, number)
	if m == 0 {
		return utils.Payout{Outcome: utils.OutcomeLose}
	}
	return utils.Payout{Outcome: utils.OutcomeWin, Credits: bet.Stake * m}
}
