// internal/tui/app.go
//
// This is the terminal front-end for the event planner.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/eventplanner/internal/artifact"
	"github.com/kingrea/eventplanner/internal/config"
	"github.com/kingrea/eventplanner/internal/credentials"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/logbook"
	"github.com/kingrea/eventplanner/internal/logging"
	"github.com/kingrea/eventplanner/internal/planner"
)

// appState represents which "screen" we're on
type appState int

const (
	stateForm    appState = iota // Request form
	stateRunning                 // Waiting for the content generator
	stateResults                 // Artifact states and preview
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithGenerator replaces the configured content generator.
func WithGenerator(gen generator.ContentGenerator) AppOption {
	return func(a *App) {
		if gen != nil {
			a.generator = gen
		}
	}
}

// WithGetenv overrides the environment lookup used to prefill the API keys.
func WithGetenv(getenv func(string) string) AppOption {
	return func(a *App) {
		if getenv != nil {
			a.getenv = getenv
		}
	}
}

// WithClock overrides the clock used for the date default and validation.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) AppOption {
	return func(a *App) { a.logger = l }
}

// planFinishedMsg carries the result of one submission.
type planFinishedMsg struct {
	outcome planner.Outcome
	err     error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	service *planner.Service
	logbook *logbook.Logbook
	logger  *logging.Logger

	generator generator.ContentGenerator
	getenv    func(string) string
	now       func() time.Time

	// UI components
	form      *eventForm
	spinner   spinner.Model
	statusMsg string
	errMsg    string
	showAbout bool

	// In-flight run
	cancel     context.CancelFunc
	runStarted time.Time

	// Results
	outcome    *planner.Outcome
	previewIdx int
	preview    string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	app := &App{
		state:  stateForm,
		config: cfg,
		getenv: os.Getenv,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	lb, err := logbook.New(cfg.JourneyLogPath())
	if err == nil {
		app.logbook = lb
	}
	serviceOpts := []planner.Option{planner.WithLogbook(app.logbook), planner.WithClock(app.now)}
	if app.generator != nil {
		app.service = planner.New(cfg.Catalog(), app.generator, cfg.ResultsDir(),
			append(serviceOpts, planner.WithLogger(app.logger), planner.WithTimeout(cfg.Project.Generator.Timeout))...)
	} else {
		svc, err := planner.FromConfig(cfg, nil, app.logger, serviceOpts...)
		if err != nil {
			return nil, err
		}
		app.service = svc
	}

	prefill := credentials.FromEnv(app.getenv)
	app.form = newEventForm(app.service.Catalog(), cfg.DefaultModel(), prefill, app.now())
	app.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	app.logInfo("Session opened · %d models available · generator: %s", app.service.Catalog().Len(), cfg.Project.Generator.Kind)
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.form.setFocus(fieldModel)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.form.setWidth(msg.Width)
		return a, nil

	case planFinishedMsg:
		return a.handlePlanFinished(msg)

	case spinner.TickMsg:
		if a.state != stateRunning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if a.cancel != nil {
				a.cancel()
			}
			return a, tea.Quit
		case "f1":
			a.showAbout = !a.showAbout
			return a, nil
		}
		switch a.state {
		case stateForm:
			return a.updateForm(msg)
		case stateRunning:
			return a.updateRunning(msg)
		case stateResults:
			return a.updateResults(msg)
		}
	}

	if a.state == stateForm {
		return a, a.form.update(msg)
	}
	return a, nil
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return a.submit()
	case "tab":
		return a, a.form.next()
	case "shift+tab":
		return a, a.form.prev()
	case "enter":
		if a.form.focus == fieldModel {
			return a, a.form.next()
		}
	}
	return a, a.form.update(msg)
}

func (a *App) updateRunning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.cancel != nil {
			a.cancel()
			a.statusMsg = "Cancelling..."
		}
	}
	// Any other key, including a second ctrl+s, is ignored while a plan runs.
	return a, nil
}

func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "n":
		a.state = stateForm
		a.statusMsg = ""
		return a, a.form.setFocus(a.form.focus)
	case "tab", "right", "l":
		a.cyclePreview(1)
	case "shift+tab", "left", "h":
		a.cyclePreview(-1)
	}
	return a, nil
}

// submit snapshots the form and starts the delegation call in the background.
func (a *App) submit() (tea.Model, tea.Cmd) {
	if a.state == stateRunning || a.service.Busy() {
		return a, nil
	}
	sub := a.form.submission()
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.state = stateRunning
	a.errMsg = ""
	a.statusMsg = "Planning your event..."
	a.runStarted = a.now()
	a.outcome = nil
	if handle := sub.ModelHandle; handle != "" && handle != a.config.DefaultModel() {
		if err := a.config.SetDefaultModel(handle); err != nil {
			a.logger.Warn("could not persist model choice", "error", err)
		}
	}
	svc := a.service
	run := func() tea.Msg {
		outcome, err := svc.Submit(ctx, sub)
		return planFinishedMsg{outcome: outcome, err: err}
	}
	return a, tea.Batch(a.spinner.Tick, run)
}

func (a *App) handlePlanFinished(msg planFinishedMsg) (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if msg.err != nil {
		a.state = stateForm
		a.statusMsg = ""
		a.errMsg = planner.UserMessage(msg.err)
		return a, a.form.setFocus(a.form.focus)
	}
	outcome := msg.outcome
	a.outcome = &outcome
	a.state = stateResults
	a.errMsg = ""
	if outcome.Ready() {
		a.statusMsg = "Your event plan is ready."
	} else {
		a.statusMsg = "The plan finished, but some results are missing."
	}
	a.previewIdx = firstReady(outcome.Artifacts)
	a.loadPreview()
	return a, nil
}

func firstReady(results []artifact.CheckResult) int {
	for i, r := range results {
		if r.Ready() {
			return i
		}
	}
	return 0
}

func (a *App) cyclePreview(step int) {
	if a.outcome == nil || len(a.outcome.Artifacts) == 0 {
		return
	}
	n := len(a.outcome.Artifacts)
	a.previewIdx = ((a.previewIdx+step)%n + n) % n
	a.loadPreview()
}

// loadPreview reads the selected artifact. Only ready artifacts are shown.
func (a *App) loadPreview() {
	a.preview = ""
	if a.outcome == nil || a.previewIdx >= len(a.outcome.Artifacts) {
		return
	}
	result := a.outcome.Artifacts[a.previewIdx]
	if !result.Ready() {
		return
	}
	body, err := a.service.Store().Read(result.Ref)
	if err != nil {
		a.logger.Warn("preview unavailable", "artifact", result.Ref.ID, "error", err)
		return
	}
	a.preview = string(body)
}
