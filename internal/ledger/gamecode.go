package ledger

import "strings"

// Gamecode identifies the bet type.
type Gamecode string

const (
	SingleDigit Gamecode = "SD"
	JodiDigit   Gamecode = "JD"
	SinglePana  Gamecode = "SP"
	DoublePana  Gamecode = "DP"
	TriplePana  Gamecode = "TP"
	HalfSangam  Gamecode = "HS"
	FullSangam  Gamecode = "FS"
)

var AllGamecodes = []Gamecode{SingleDigit, JodiDigit, SinglePana, DoublePana, TriplePana, HalfSangam, FullSangam}

func ParseGamecode(raw string) (Gamecode, bool) {
	code := Gamecode(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range AllGamecodes {
		if c == code {
			return code, true
		}
	}
	return "", false
}

// OpenOnly codes can only win in the open window.
func (c Gamecode) OpenOnly() bool {
	return c == JodiDigit || c == FullSangam
}

// Sangam codes carry a "first-second" number pair.
func (c Gamecode) Sangam() bool {
	return c == HalfSangam || c == FullSangam
}

// PerSideCutoff codes gate each tuple on its own side's cut-off; the rest gate every tuple on the open cut-off.
func (c Gamecode) PerSideCutoff() bool {
	switch c {
	case SingleDigit, SinglePana, DoublePana, TriplePana:
		return true
	}
	return false
}

// Charted codes feed the per-number chart aggregate.
func (c Gamecode) Charted() bool {
	return !c.Sangam()
}

// Window is the open or close half of a game's daily result. Bets use it as their side.
type Window string

const (
	WindowOpen  Window = "open"
	WindowClose Window = "close"
)

// ParseSide maps anything other than "close" to open.
func ParseSide(raw string) Window {
	if strings.EqualFold(strings.TrimSpace(raw), string(WindowClose)) {
		return WindowClose
	}
	return WindowOpen
}

func ParseWindow(raw string) (Window, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(WindowOpen):
		return WindowOpen, true
	case string(WindowClose):
		return WindowClose, true
	}
	return "", false
}

// EndpointCodes maps intake endpoint names to the code each one accepts.
var EndpointCodes = map[string]Gamecode{
	"singledigitbets":      SingleDigit,
	"jodidigitsbets":       JodiDigit,
	"singlepanadigitsbets": SinglePana,
	"doublepanadigitsbets": DoublePana,
	"triplepanadigitsbets": TriplePana,
	"halfsangambets":       HalfSangam,
	"fullsangambets":       FullSangam,
}
