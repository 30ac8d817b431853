package stats

import "github.com/ukpack/ukstats/internal/event"

// Rate is a two-way split of one categorical field: how many
// events chose the positive value, how many the negative, and
// the positive share as a percent. Other values of the field do
// not enter the total.
type Rate struct {
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// RateOf counts occurrences of positive and negative in field
// across events named name. A zero total yields Percent 0, not
// NaN.
func RateOf(
	events []event.Event, name, field, positive, negative string,
) Rate {
	var r Rate
	for _, e := range events {
		if e.Name != name {
			continue
		}
		switch event.StringField(e.Payload, field) {
		case positive:
			r.Positive++
		case negative:
			r.Negative++
		}
	}
	r.Total = r.Positive + r.Negative
	r.Percent = percent(r.Positive, r.Total)
	return r
}
