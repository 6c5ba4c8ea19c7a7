package game

import (
	"slices"
	"strconv"
	"time"

	"github.com/choiway/photoguess/internal/options"
	"github.com/choiway/photoguess/internal/photo"
)

// Choice is one selectable answer.
type Choice struct {
	Value GuessValue `json:"value"`
	Label string     `json:"label"`
}

// choicesFor builds the options for field f of the current photo. They are
// generated once when the field becomes current so repeated reads cannot be
// compared to narrow down the answer.
func (g *Game) choicesFor(f Field) []Choice {
	p := g.photos[g.photoIndex]

	switch f {
	case FieldYear:
		years := options.Years(p.Date.Year, g.Now().Year(), g.rng)
		slices.Sort(years)
		return numberChoices(years, strconv.Itoa)
	case FieldMonth:
		return numberChoices(options.Months(), func(m int) string {
			return time.Month(m).String()
		})
	case FieldDay:
		return numberChoices(options.Days(photo.DaysInMonth(p.Date.Year, p.Date.Month)), strconv.Itoa)
	case FieldCountry:
		return textChoices(options.Categorical(p.Location.Country, g.countries, g.rng))
	case FieldState:
		return textChoices(options.Categorical(p.Location.State, g.states, g.rng))
	case FieldCity:
		return textChoices(options.Categorical(p.Location.City, g.cities, g.rng))
	}
	return nil
}

func numberChoices(ns []int, label func(int) string) []Choice {
	out := make([]Choice, len(ns))
	for i, n := range ns {
		out[i] = Choice{Value: Number(n), Label: label(n)}
	}
	return out
}

func textChoices(ss []string) []Choice {
	out := make([]Choice, len(ss))
	for i, s := range ss {
		out[i] = Choice{Value: Text(s), Label: s}
	}
	return out
}
