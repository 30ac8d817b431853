package report

import (
	"sort"

	"github.com/ukpack/ukstats/internal/event"
	"github.com/ukpack/ukstats/internal/stats"
)

// MinigameReport is the shared shape for the two pick-N
// mini-games: total completions plus the per-option selection
// counts.
type MinigameReport struct {
	Completions int                `json:"completions"`
	Selections  stats.Distribution `json:"selections"`
}

// PriorityMinigame reports the policy-priority drag game.
func (r *Reporter) PriorityMinigame(rng Range) (MinigameReport, error) {
	return r.minigame(rng, event.PriorityGame, event.FieldSelectedPolicies)
}

// BeneficiaryMinigame reports the beneficiary-group selection
// game.
func (r *Reporter) BeneficiaryMinigame(rng Range) (MinigameReport, error) {
	return r.minigame(rng, event.BeneficiaryGame, event.FieldSelectedGroups)
}

func (r *Reporter) minigame(
	rng Range, name, field string,
) (MinigameReport, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return MinigameReport{}, err
	}
	selections := stats.MultiSelect(events, name, field)
	return MinigameReport{
		Completions: selections.Total,
		Selections:  selections,
	}, nil
}

// BudgetReport covers the budget allocation game: which
// categories made participants' top three, and the average
// amount allocated per category.
type BudgetReport struct {
	Completions int                `json:"completions"`
	TopChoices  stats.Distribution `json:"topChoices"`
	Allocation  stats.Allocation   `json:"allocation"`
}

// BudgetMinigame reports the budget game for the range.
func (r *Reporter) BudgetMinigame(rng Range) (BudgetReport, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return BudgetReport{}, err
	}
	top := stats.MultiSelect(events, event.BudgetGame, event.FieldTop3Choices)
	return BudgetReport{
		Completions: top.Total,
		TopChoices:  top,
		Allocation: stats.Allocate(
			events, event.BudgetGame, event.FieldBudgetAllocation,
		),
	}, nil
}

// SatisfactionReport is the satisfied/unsatisfied split for the
// post-game satisfaction prompt.
type SatisfactionReport struct {
	Satisfied   int     `json:"satisfied"`
	Unsatisfied int     `json:"unsatisfied"`
	Total       int     `json:"total"`
	Rate        float64 `json:"rate"`
}

// Satisfaction computes the satisfaction split for the range.
func (r *Reporter) Satisfaction(rng Range) (SatisfactionReport, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return SatisfactionReport{}, err
	}
	rate := stats.RateOf(
		events, event.Satisfaction, event.FieldChoice,
		event.ChoiceSatisfied, event.ChoiceUnsatisfied,
	)
	return SatisfactionReport{
		Satisfied:   rate.Positive,
		Unsatisfied: rate.Negative,
		Total:       rate.Total,
		Rate:        rate.Percent,
	}, nil
}

// FakeNewsScenario is one headline's search/ignore split.
type FakeNewsScenario struct {
	Scenario   string  `json:"scenario"`
	Search     int     `json:"search"`
	Ignore     int     `json:"ignore"`
	SearchRate float64 `json:"searchRate"`
}

// FakeNewsReport covers the media-literacy prompt: the overall
// search rate plus the per-scenario correlation table.
type FakeNewsReport struct {
	Search     int                `json:"search"`
	Ignore     int                `json:"ignore"`
	Total      int                `json:"total"`
	SearchRate float64            `json:"searchRate"`
	Scenarios  []FakeNewsScenario `json:"scenarios"`
}

// FakeNews computes the fake-news interaction report.
func (r *Reporter) FakeNews(rng Range) (FakeNewsReport, error) {
	events, _, err := r.scan(rng)
	if err != nil {
		return FakeNewsReport{}, err
	}

	rate := stats.RateOf(
		events, event.FakeNews, event.FieldChoice,
		event.ChoiceSearch, event.ChoiceIgnore,
	)
	out := FakeNewsReport{
		Search:     rate.Positive,
		Ignore:     rate.Negative,
		Total:      rate.Total,
		SearchRate: rate.Percent,
		Scenarios:  []FakeNewsScenario{},
	}

	byScenario := make(map[string]*FakeNewsScenario)
	for _, e := range events {
		if e.Name != event.FakeNews {
			continue
		}
		scenario := event.StringField(e.Payload, event.FieldScenario)
		if scenario == "" {
			continue
		}
		entry, ok := byScenario[scenario]
		if !ok {
			entry = &FakeNewsScenario{Scenario: scenario}
			byScenario[scenario] = entry
		}
		switch event.StringField(e.Payload, event.FieldChoice) {
		case event.ChoiceSearch:
			entry.Search++
		case event.ChoiceIgnore:
			entry.Ignore++
		}
	}
	for _, entry := range byScenario {
		if total := entry.Search + entry.Ignore; total > 0 {
			entry.SearchRate = stats.Round1(
				float64(entry.Search) / float64(total) * 100,
			)
		}
		out.Scenarios = append(out.Scenarios, *entry)
	}
	sort.Slice(out.Scenarios, func(i, j int) bool {
		return out.Scenarios[i].Scenario < out.Scenarios[j].Scenario
	})
	return out, nil
}
