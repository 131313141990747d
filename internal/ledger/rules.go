package ledger

import (
	"github.com/shopspring/decimal"

	"lottoledger/internal/models"
)

// Rule decides whether one bet wins in one window.
type Rule struct {
	Code   Gamecode
	Window Window
	// Needs lists the result fields the predicate reads.
	Needs Field
	Match func(r Result, b *models.Bet) bool
}

type ruleKey struct {
	code   Gamecode
	window Window
}

var rules = map[ruleKey]Rule{}

func register(r Rule) {
	rules[ruleKey{r.Code, r.Window}] = r
}

func init() {
	register(Rule{Code: SingleDigit, Window: WindowOpen, Needs: FieldOpenDigit,
		Match: func(r Result, b *models.Bet) bool { return r.OpenDigit == b.SDNumber }})
	register(Rule{Code: SingleDigit, Window: WindowClose, Needs: FieldCloseDigit,
		Match: func(r Result, b *models.Bet) bool { return r.CloseDigit == b.SDNumber && b.Close }})

	panels := map[Gamecode]func(b *models.Bet) string{
		SinglePana: func(b *models.Bet) string { return b.SPNumber },
		DoublePana: func(b *models.Bet) string { return b.DPNumber },
		TriplePana: func(b *models.Bet) string { return b.TPNumber },
	}
	for code, number := range panels {
		number := number
		register(Rule{Code: code, Window: WindowOpen, Needs: FieldOpenPanel,
			Match: func(r Result, b *models.Bet) bool { return r.OpenPanel == number(b) }})
		register(Rule{Code: code, Window: WindowClose, Needs: FieldClosePanel,
			Match: func(r Result, b *models.Bet) bool { return r.ClosePanel == number(b) && b.Close }})
	}

	register(Rule{Code: JodiDigit, Window: WindowOpen, Needs: FieldJodi,
		Match: func(r Result, b *models.Bet) bool { return r.Jodi == b.JDNumber && b.Open }})
	register(Rule{Code: FullSangam, Window: WindowOpen, Needs: FieldOpenPanel | FieldClosePanel,
		Match: func(r Result, b *models.Bet) bool {
			return r.OpenPanel == b.FSOpenPana && r.ClosePanel == b.FSClosePana && b.Open
		}})
	register(Rule{Code: HalfSangam, Window: WindowOpen, Needs: FieldOpenDigit | FieldClosePanel,
		Match: func(r Result, b *models.Bet) bool {
			return r.OpenDigit == b.HSOpenDigit && r.ClosePanel == b.HSClosePana && b.Open
		}})
	register(Rule{Code: HalfSangam, Window: WindowClose, Needs: FieldCloseDigit | FieldOpenPanel,
		Match: func(r Result, b *models.Bet) bool {
			return r.CloseDigit == b.HSCloseDigit && r.OpenPanel == b.HSOpenPana && b.Close
		}})
}

// RuleFor returns the rule for a code in a window; ok is false when that window never settles the code.
func RuleFor(code Gamecode, window Window) (Rule, bool) {
	r, ok := rules[ruleKey{code, window}]
	return r, ok
}

// WindowCodes lists the codes a window may settle, in canonical order.
func WindowCodes(window Window) []Gamecode {
	out := make([]Gamecode, 0, len(AllGamecodes))
	for _, code := range AllGamecodes {
		if _, ok := RuleFor(code, window); ok {
			out = append(out, code)
		}
	}
	return out
}

// SettleableCodes narrows WindowCodes to the rules this result has enough fields for.
func SettleableCodes(window Window, r Result) (ready, skipped []Gamecode) {
	for _, code := range WindowCodes(window) {
		rule, _ := RuleFor(code, window)
		if r.Has(rule.Needs) {
			ready = append(ready, code)
		} else {
			skipped = append(skipped, code)
		}
	}
	return ready, skipped
}

// Evaluate is the single dispatch over the rule table. Unknown pairs never win.
func Evaluate(window Window, r Result, b *models.Bet) bool {
	if b == nil {
		return false
	}
	rule, ok := RuleFor(Gamecode(b.Gamecode), window)
	if !ok || !r.Has(rule.Needs) {
		return false
	}
	return rule.Match(r, b)
}

var ten = decimal.NewFromInt(10)

// Payout is amount * rate / 10, rounded half away from zero to two decimals
// so the credited value equals the stored winning amount.
func Payout(amount decimal.Decimal, rate int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(rate))).Div(ten).Round(2)
}
