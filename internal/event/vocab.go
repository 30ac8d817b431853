package event

// Event names emitted by the UK PACK client. The dashboard's
// report layer binds extractors to these names; the store itself
// accepts any non-empty name so new screens can ship events
// before the dashboard learns about them.
const (
	Stance          = "stance-selected"
	Reason          = "reason-selected"
	CustomReason    = "custom-reason-submitted"
	PriorityGame    = "priority-game-completed"
	BeneficiaryGame = "beneficiary-game-completed"
	BudgetGame      = "budget-game-completed"
	Satisfaction    = "satisfaction-selected"
	FakeNews        = "fakenews-selected"
	RewardDecision  = "reward-decision"
	RewardForm      = "reward-form-submitted"
	Suggestion      = "suggestion-submitted"
)

// Payload field keys per event type. The UI localizes labels to
// Thai; the wire values stay as these stable keys.
const (
	FieldChoice           = "choice"
	FieldScenario         = "scenario"
	FieldCustomReason     = "customReason"
	FieldSelectedPolicies = "selectedPolicies"
	FieldSelectedGroups   = "selectedGroups"
	FieldTop3Choices      = "top3Choices"
	FieldBudgetAllocation = "budgetAllocation"
	FieldSuggestion       = "suggestion"
)

// Known categorical choice values.
const (
	ChoiceSatisfied   = "satisfied"
	ChoiceUnsatisfied = "unsatisfied"
	ChoiceSearch      = "search"
	ChoiceIgnore      = "ignore"
	ChoiceParticipate = "participate"
	ChoiceDecline     = "decline"
)
