package engine

// StepKind names the kind of input a step collects
type StepKind string

const (
	KindLink     StepKind = "link"
	KindNumber   StepKind = "number"
	KindChoice   StepKind = "choice"
	KindAction   StepKind = "action"
	KindTag      StepKind = "tag"
	KindTerminal StepKind = "terminal"
)

// Step is a static step definition
type Step interface {
	ID() string
	Label() string
	Kind() StepKind
	// Required reports whether advancing past the step needs a value
	Required() bool
}

type stepBase struct {
	id       string
	label    string
	required bool
}

func (s stepBase) ID() string     { return s.id }
func (s stepBase) Label() string  { return s.label }
func (s stepBase) Required() bool { return s.required }

// LinkStep collects a URL
type LinkStep struct{ stepBase }

func (LinkStep) Kind() StepKind { return KindLink }

// NumberStep collects a non-negative integer
type NumberStep struct{ stepBase }

func (NumberStep) Kind() StepKind { return KindNumber }

// ChoiceStep collects one of a fixed set of values
type ChoiceStep struct {
	stepBase
	Choices []string
}

func (ChoiceStep) Kind() StepKind { return KindChoice }

// Allows reports whether value is one of the choices
func (s ChoiceStep) Allows(value string) bool {
	for _, c := range s.Choices {
		if c == value {
			return true
		}
	}
	return false
}

// ActionStep asks the user to commit their work
type ActionStep struct {
	stepBase
	ActionLabel string
}

func (ActionStep) Kind() StepKind { return KindAction }

// TagStep commits and tags with TagPrefix
type TagStep struct {
	stepBase
	TagPrefix string
}

func (TagStep) Kind() StepKind { return KindTag }

// TerminalStep ends the lifecycle
type TerminalStep struct{ stepBase }

func (TerminalStep) Kind() StepKind { return KindTerminal }

// Intake step ids. These are filled by CreateCycle and sit outside the
// stepping sequence.
const (
	StepPrd      = "prd"
	StepDesign   = "design"
	StepMeegleID = "meegleId"
)

// Sequence step ids, in order.
const (
	StepTechDesign  = "techDesign"
	StepEstimate    = "estimate"
	StepDevelopment = "development"
	StepSelfTest    = "selfTest"
	StepTestDeploy  = "testDeploy"
	StepStageDeploy = "stageDeploy"
	StepRelease     = "release"
)

var intakeSteps = []Step{
	LinkStep{stepBase{StepPrd, "PRD", true}},
	LinkStep{stepBase{StepDesign, "Design", false}},
	NumberStep{stepBase{StepMeegleID, "Meegle ID", true}},
}

var sequenceSteps = []Step{
	LinkStep{stepBase{StepTechDesign, "Technical Design", false}},
	NumberStep{stepBase{StepEstimate, "Estimate (days)", false}},
	ActionStep{stepBase: stepBase{StepDevelopment, "Development", false}, ActionLabel: "Commit"},
	ChoiceStep{
		stepBase: stepBase{StepSelfTest, "Self Test", true},
		Choices:  []string{"passed", "passed-with-known-issues"},
	},
	TagStep{stepBase: stepBase{StepTestDeploy, "Test Deploy", false}, TagPrefix: "test"},
	TagStep{stepBase: stepBase{StepStageDeploy, "Stage Deploy", false}, TagPrefix: "stage"},
	TerminalStep{stepBase{StepRelease, "Release", false}},
}

// StepCount is the length of the stepping sequence
func StepCount() int {
	return len(sequenceSteps)
}

// Sequence returns the stepping sequence in order
func Sequence() []Step {
	return append([]Step(nil), sequenceSteps...)
}

// IntakeSteps returns the steps populated when a cycle is created
func IntakeSteps() []Step {
	return append([]Step(nil), intakeSteps...)
}

// StepAt returns the sequence step at index
func StepAt(index int) (Step, bool) {
	if index < 0 || index >= len(sequenceSteps) {
		return nil, false
	}
	return sequenceSteps[index], true
}

// LookupStep finds a step by id. index is -1 for intake steps.
func LookupStep(id string) (step Step, index int, ok bool) {
	for i, s := range sequenceSteps {
		if s.ID() == id {
			return s, i, true
		}
	}
	for _, s := range intakeSteps {
		if s.ID() == id {
			return s, -1, true
		}
	}
	return nil, 0, false
}
