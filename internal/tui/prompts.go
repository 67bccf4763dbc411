package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"kllc.dev/kllc/internal/engine"
)

// ErrInteractiveDisabled is returned when prompts cannot be shown
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (no terminal or KLLC_NO_INTERACTIVE is set)")

// IsTTY returns true if stdin and stdout are both terminals
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}

func checkInteractiveAllowed() error {
	if os.Getenv("KLLC_NO_INTERACTIVE") != "" || !IsTTY() {
		return ErrInteractiveDisabled
	}
	return nil
}

// PromptCycle asks for the fields of a new cycle. Fields already set in
// defaults are used as default answers.
func PromptCycle(defaults engine.CycleRequest) (engine.CycleRequest, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return defaults, err
	}

	questions := []*survey.Question{
		{
			Name:     "PrdLink",
			Prompt:   &survey.Input{Message: "PRD link:", Default: defaults.PrdLink},
			Validate: survey.Required,
		},
		{
			Name:     "MeegleID",
			Prompt:   &survey.Input{Message: "Meegle ID:", Default: defaults.MeegleID},
			Validate: validateMeegleID,
		},
		{
			Name:   "BaseBranch",
			Prompt: &survey.Input{Message: "Base branch:", Default: defaults.BaseBranch},
		},
		{
			Name:   "DesignLink",
			Prompt: &survey.Input{Message: "Design link (optional):", Default: defaults.DesignLink},
		},
	}

	answers := defaults
	if err := survey.Ask(questions, &answers); err != nil {
		return defaults, err
	}
	return answers, nil
}

func validateMeegleID(ans interface{}) error {
	s, _ := ans.(string)
	if !engine.ValidMeegleID(s) {
		return fmt.Errorf("meegle id must be digits")
	}
	return nil
}

// PromptStepValue asks for the value of step. Choice steps get a select
// list; everything else a text input.
func PromptStepValue(step engine.Step, current string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	if choice, ok := step.(engine.ChoiceStep); ok {
		prompt := &survey.Select{
			Message: step.Label() + ":",
			Options: choice.Choices,
		}
		if choice.Allows(current) {
			prompt.Default = current
		}
		var value string
		if err := survey.AskOne(prompt, &value); err != nil {
			return "", err
		}
		return value, nil
	}

	return PromptTextInput(step.Label()+":", current)
}

// textInputModel is a simple text input prompt model
type textInputModel struct {
	textInput textinput.Model
	prompt    string
	done      bool
	err       error
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.err = fmt.Errorf("canceled")
			m.done = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m textInputModel) View() string {
	if m.done {
		return ""
	}
	return lipgloss.NewStyle().Margin(1, 0).
		Render(fmt.Sprintf("%s\n%s\n\n(Press Enter to submit, Ctrl+C to cancel)", m.prompt, m.textInput.View()))
}

// PromptTextInput prompts the user for text input
func PromptTextInput(prompt, defaultValue string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	ti := textinput.New()
	ti.SetValue(defaultValue)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 80

	p := tea.NewProgram(textInputModel{textInput: ti, prompt: prompt}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	model, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := model.(textInputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type %T", model)
	}
	if result.err != nil {
		return "", result.err
	}
	return result.textInput.Value(), nil
}
