package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/event"
	"github.com/kingrea/eventplanner/internal/planner"
)

// formField identifies a focusable control on the form, in tab order.
type formField int

const (
	fieldModel formField = iota
	fieldOpenAIKey
	fieldSerperKey
	fieldGeminiKey
	fieldTopic
	fieldDescription
	fieldCity
	fieldDate
	fieldParticipants
	fieldBudget
	fieldCount
)

var fieldLabels = map[formField]string{
	fieldModel:        "Model",
	fieldOpenAIKey:    "OpenAI API Key",
	fieldSerperKey:    "Serper API Key",
	fieldGeminiKey:    "Gemini API Key",
	fieldTopic:        "Event Topic",
	fieldDescription:  "Event Description",
	fieldCity:         "Location",
	fieldDate:         "Event Date (DD.MM.YYYY)",
	fieldParticipants: "Expected Participants",
	fieldBudget:       "Approximate Budget in USD",
}

var fieldHelp = map[formField]string{
	fieldOpenAIKey: "Enter your OpenAI API key",
	fieldSerperKey: "Enter your Serper API key for web search capabilities",
	fieldGeminiKey: "Only needed for gemini/* models",
}

// modelItem implements list.Item for the model selector.
type modelItem struct {
	option event.ModelOption
}

func (i modelItem) Title() string       { return i.option.Name }
func (i modelItem) Description() string { return i.option.Provider }
func (i modelItem) FilterValue() string { return i.option.Handle() }

// eventForm holds every input widget of the request form.
type eventForm struct {
	models      list.Model
	inputs      map[formField]*textinput.Model
	description textarea.Model
	focus       formField
}

func newEventForm(catalog *event.Catalog, defaultHandle string, prefill credentials.Credentials, today time.Time) *eventForm {
	opts := catalog.Options()
	items := make([]list.Item, len(opts))
	selected := 0
	for i, opt := range opts {
		items[i] = modelItem{option: opt}
		if strings.EqualFold(opt.Handle(), defaultHandle) {
			selected = i
		}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	models := list.New(items, delegate, 40, 8)
	models.Title = "Select which LLM to use"
	models.SetShowStatusBar(false)
	models.SetFilteringEnabled(false)
	models.SetShowHelp(false)
	models.DisableQuitKeybindings()
	models.Select(selected)

	f := &eventForm{
		models: models,
		inputs: map[formField]*textinput.Model{},
	}
	f.inputs[fieldOpenAIKey] = secretInput("Enter your OpenAI API key", prefill.OpenAIKey)
	f.inputs[fieldSerperKey] = secretInput("Enter your Serper API key", prefill.SerperKey)
	f.inputs[fieldGeminiKey] = secretInput("Enter your Gemini API key", prefill.GeminiKey)
	f.inputs[fieldTopic] = plainInput("Enter the main topic of the event...", "")
	f.inputs[fieldCity] = plainInput("Enter the location where you want the event to take place...", "")
	f.inputs[fieldDate] = plainInput("DD.MM.YYYY", today.Format(event.DateLayout))
	f.inputs[fieldParticipants] = plainInput("at least 10", "10")
	f.inputs[fieldBudget] = plainInput("at least 500", "500")

	ta := textarea.New()
	ta.Placeholder = "Enter a brief description of the event..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(60)
	f.description = ta
	return f
}

func secretInput(placeholder, value string) *textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.SetValue(value)
	return &ti
}

func plainInput(placeholder, value string) *textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.SetValue(value)
	return &ti
}

// setFocus moves focus to field, blurring the previous control.
func (f *eventForm) setFocus(field formField) tea.Cmd {
	if ti, ok := f.inputs[f.focus]; ok {
		ti.Blur()
	}
	if f.focus == fieldDescription {
		f.description.Blur()
	}
	f.focus = (field + fieldCount) % fieldCount
	if ti, ok := f.inputs[f.focus]; ok {
		return ti.Focus()
	}
	if f.focus == fieldDescription {
		return f.description.Focus()
	}
	return nil
}

func (f *eventForm) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *eventForm) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

// update forwards msg to the focused control.
func (f *eventForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldModel:
		f.models, cmd = f.models.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	default:
		if ti, ok := f.inputs[f.focus]; ok {
			*ti, cmd = ti.Update(msg)
		}
	}
	return cmd
}

func (f *eventForm) selectedModel() string {
	item, ok := f.models.SelectedItem().(modelItem)
	if !ok {
		return ""
	}
	return item.option.Handle()
}

func (f *eventForm) value(field formField) string {
	if field == fieldDescription {
		return f.description.Value()
	}
	if ti, ok := f.inputs[field]; ok {
		return ti.Value()
	}
	return ""
}

func (f *eventForm) setValue(field formField, value string) {
	if field == fieldDescription {
		f.description.SetValue(value)
		return
	}
	if ti, ok := f.inputs[field]; ok {
		ti.SetValue(value)
	}
}

// submission snapshots the form. Keys stay in memory for this submission only.
func (f *eventForm) submission() planner.Submission {
	return planner.Submission{
		Form: event.Form{
			Topic:        f.value(fieldTopic),
			Description:  f.value(fieldDescription),
			City:         f.value(fieldCity),
			Date:         f.value(fieldDate),
			Participants: f.value(fieldParticipants),
			Budget:       f.value(fieldBudget),
		},
		ModelHandle: f.selectedModel(),
		Credentials: credentials.Credentials{
			OpenAIKey: f.value(fieldOpenAIKey),
			SerperKey: f.value(fieldSerperKey),
			GeminiKey: f.value(fieldGeminiKey),
		},
	}
}

func (f *eventForm) setWidth(width int) {
	inner := max(20, width-8)
	f.models.SetSize(inner, min(10, f.models.Height()))
	f.description.SetWidth(inner)
	for _, ti := range f.inputs {
		ti.Width = inner - 2
	}
}
