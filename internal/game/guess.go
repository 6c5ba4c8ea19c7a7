package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/choiway/photoguess/internal/photo"
)

// Field is the part of the answer currently being guessed.
type Field string

const (
	FieldYear    Field = "year"
	FieldMonth   Field = "month"
	FieldDay     Field = "day"
	FieldCountry Field = "country"
	FieldState   Field = "state"
	FieldCity    Field = "city"
)

var fieldOrder = map[photo.Mode][]Field{
	photo.ModeDate:     {FieldYear, FieldMonth, FieldDay},
	photo.ModeLocation: {FieldCountry, FieldState, FieldCity},
}

// cumulativePoints is the turn score once one, two or three fields of the
// photo's sequence have been guessed. Scoring goes by count, so a photo
// with no state scores country+city as two fields.
var cumulativePoints = []int{1, 3, 6}

func turnPoints(answered int) int {
	if answered <= 0 {
		return 0
	}
	return cumulativePoints[min(answered, len(cumulativePoints))-1]
}

// fieldLabels name a field in feedback when it is the next one to guess.
var fieldLabels = map[Field]string{
	FieldMonth: "month",
	FieldDay:   "day",
	FieldState: "state/province",
	FieldCity:  "city",
}

func continueMessage(done, next Field) string {
	return fmt.Sprintf("Correct %s! Now guess the %s.", done, fieldLabels[next])
}

func exactMessage(m photo.Mode, points int) string {
	what, unit := "date", "points"
	if m == photo.ModeLocation {
		what = "location"
	}
	if points == 1 {
		unit = "point"
	}
	return fmt.Sprintf("Exact %s! +%d %s!", what, points, unit)
}

func wrongMessage(points int) string {
	switch points {
	case 0:
		return "Wrong! No points this turn."
	case 1:
		return "Wrong! You earned 1 point this turn."
	}
	return fmt.Sprintf("Wrong! You earned %d points this turn.", points)
}

// GuessValue is a single guess: a number for date fields, text for location
// fields. In JSON it is a bare number or string.
type GuessValue struct {
	Number int
	Text   string
	IsText bool
}

// Number returns a numeric guess.
func Number(n int) GuessValue { return GuessValue{Number: n} }

// Text returns a text guess.
func Text(s string) GuessValue { return GuessValue{Text: s, IsText: true} }

func (v GuessValue) String() string {
	if v.IsText {
		return v.Text
	}
	return strconv.Itoa(v.Number)
}

func (v GuessValue) MarshalJSON() ([]byte, error) {
	if v.IsText {
		return json.Marshal(v.Text)
	}
	return json.Marshal(v.Number)
}

func (v *GuessValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("guess must be a whole number or a string")
	}
	*v = Number(n)
	return nil
}

// Guess holds the fields answered correctly so far this turn.
type Guess map[Field]GuessValue

// Answer is the solution revealed once a turn is over.
type Answer struct {
	Date     *photo.Date     `json:"date,omitempty"`
	Location *photo.Location `json:"location,omitempty"`
}

// String formats the answer for display, e.g. "July 4, 2010".
func (a *Answer) String() string {
	switch {
	case a == nil:
		return ""
	case a.Date != nil:
		return a.Date.String()
	case a.Location != nil:
		return a.Location.String()
	}
	return ""
}

func answerFor(p photo.Photo, m photo.Mode) *Answer {
	if m == photo.ModeLocation {
		return &Answer{Location: p.Location}
	}
	return &Answer{Date: p.Date}
}

// expected returns the photo's value for f and whether f is numeric.
func expected(p photo.Photo, f Field) (GuessValue, bool) {
	switch f {
	case FieldYear:
		return Number(p.Date.Year), true
	case FieldMonth:
		return Number(p.Date.Month), true
	case FieldDay:
		return Number(p.Date.Day), true
	case FieldCountry:
		return Text(p.Location.Country), false
	case FieldState:
		return Text(p.Location.State), false
	case FieldCity:
		return Text(p.Location.City), false
	}
	return GuessValue{}, false
}

// matches compares exactly for numbers and case-insensitively, ignoring
// surrounding whitespace, for text.
func matches(guess, want GuessValue) bool {
	if want.IsText {
		return strings.EqualFold(strings.TrimSpace(guess.Text), strings.TrimSpace(want.Text))
	}
	return guess.Number == want.Number
}
