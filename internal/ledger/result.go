package ledger

import "strings"

// Result is a published game result. Open-window results may omit the close half.
type Result struct {
	OpenPanel  string `json:"open_panel"`
	OpenDigit  string `json:"open_digit"`
	Jodi       string `json:"jodi"`
	CloseDigit string `json:"close_digit"`
	ClosePanel string `json:"close_panel"`
}

// Field is a bit set of result sub-fields.
type Field uint8

const (
	FieldOpenPanel Field = 1 << iota
	FieldOpenDigit
	FieldJodi
	FieldCloseDigit
	FieldClosePanel
)

func (r Result) Has(need Field) bool {
	have := Field(0)
	if r.OpenPanel != "" {
		have |= FieldOpenPanel
	}
	if r.OpenDigit != "" {
		have |= FieldOpenDigit
	}
	if r.Jodi != "" {
		have |= FieldJodi
	}
	if r.CloseDigit != "" {
		have |= FieldCloseDigit
	}
	if r.ClosePanel != "" {
		have |= FieldClosePanel
	}
	return have&need == need
}

// ParseResult parses "123-4" (open half) or "123-45-678" (full). Cleared
// ("***-**-***") and malformed strings are rejected.
func ParseResult(raw string) (Result, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	switch len(parts) {
	case 2:
		if !digits(parts[0], 3) || !digits(parts[1], 1) {
			return Result{}, Invalid("malformed result %q", raw)
		}
		return Result{OpenPanel: parts[0], OpenDigit: parts[1]}, nil
	case 3:
		if !digits(parts[0], 3) || !digits(parts[1], 2) || !digits(parts[2], 3) {
			return Result{}, Invalid("malformed result %q", raw)
		}
		return Result{
			OpenPanel:  parts[0],
			OpenDigit:  parts[1][:1],
			Jodi:       parts[1],
			CloseDigit: parts[1][1:],
			ClosePanel: parts[2],
		}, nil
	}
	return Result{}, Invalid("malformed result %q", raw)
}

// Normalize fills Jodi from the two digits, or the digits from Jodi.
func (r Result) Normalize() Result {
	r.OpenPanel = strings.TrimSpace(r.OpenPanel)
	r.OpenDigit = strings.TrimSpace(r.OpenDigit)
	r.Jodi = strings.TrimSpace(r.Jodi)
	r.CloseDigit = strings.TrimSpace(r.CloseDigit)
	r.ClosePanel = strings.TrimSpace(r.ClosePanel)
	if r.Jodi == "" && r.OpenDigit != "" && r.CloseDigit != "" {
		r.Jodi = r.OpenDigit + r.CloseDigit
	}
	if len(r.Jodi) == 2 {
		if r.OpenDigit == "" {
			r.OpenDigit = r.Jodi[:1]
		}
		if r.CloseDigit == "" {
			r.CloseDigit = r.Jodi[1:]
		}
	}
	return r
}

// String renders the result in the stored game format.
func (r Result) String() string {
	if r.ClosePanel == "" {
		return r.OpenPanel + "-" + r.OpenDigit
	}
	return r.OpenPanel + "-" + r.Jodi + "-" + r.ClosePanel
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
