package model

// TutorialStep is one page of the onboarding tutorial.
type TutorialStep struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// Target names the screen the step points at (portal, sheet, mail...).
	Target string `yaml:"target"`
}

// TutorialProgress is the persisted position in the tutorial.
type TutorialProgress struct {
	CurrentStep int  `json:"current_step"`
	IsCompleted bool `json:"is_completed"`
}
