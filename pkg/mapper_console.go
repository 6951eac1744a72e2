package pkg

import (
	"context"
	"fmt"
	"image"
	stdio "io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/io"
	"github.com/ecopia-map/rgbd_mapper/internal/preview"
	"github.com/ecopia-map/rgbd_mapper/internal/session"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

const (
	consoleHelp = "s save · f filters · p pause · r reset · c colormap · +/- range · q quit"
	// lines used by the status and help bars
	consoleChrome = 3
	// weight of the newest frame interval in the fps estimate
	fpsSmoothing = 0.1
)

var (
	statusStyle = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

type captureMsg struct {
	capture *session.Capture
	err     error
}

type saveMsg struct {
	path string
	err  error
}

// consoleModel drives the session from the bubbletea event loop. At most one
// cycle runs at a time: the next one is requested when the previous result arrives.
type consoleModel struct {
	ctx       context.Context
	session   *session.Session
	colorizer *preview.Colorizer

	width    int
	height   int
	capture  *session.Capture
	inFlight bool
	paused   bool
	skipped  int
	fps      float64
	lastAt   time.Time
	status   string
	err      error
}

func newConsoleModel(ctx context.Context, s *session.Session) *consoleModel {
	return &consoleModel{
		ctx:       ctx,
		session:   s,
		colorizer: preview.NewColorizer(),
		width:     80,
		height:    24,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return m.next()
}

func (m *consoleModel) next() tea.Cmd {
	if m.inFlight || m.paused {
		return nil
	}
	m.inFlight = true
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		c, err := s.Next(ctx)
		return captureMsg{capture: c, err: err}
	}
}

func (m *consoleModel) save() tea.Cmd {
	c := m.session.LastCapture()
	if c == nil {
		m.status = "nothing to save yet"
		return nil
	}
	m.status = fmt.Sprintf("saving frame %d...", c.Seq)
	s := m.session
	return func() tea.Msg {
		path, err := s.Save(c, "")
		return saveMsg{path: path, err: err}
	}
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case captureMsg:
		return m, m.handleCapture(msg)
	case saveMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.path
		}
	}
	return m, nil
}

func (m *consoleModel) handleKey(key string) tea.Cmd {
	switch key {
	case CommandQuit, "ctrl+c", "esc":
		return tea.Quit
	case CommandSave:
		return m.save()
	case CommandFilter:
		m.status = "filters " + onOff(m.session.ToggleFilters())
	case CommandPause:
		m.paused = !m.paused
		if m.paused {
			m.status = "paused"
			return nil
		}
		m.status = "resumed"
		m.lastAt = time.Time{}
		return m.next()
	case CommandReset:
		m.session.ResetFilters()
		m.status = "filter history cleared"
	case "c":
		m.colorizer.Map = m.colorizer.Map.Next()
		m.status = "colormap " + m.colorizer.Map.String()
	case "+":
		m.colorizer.Widen()
		m.status = fmt.Sprintf("range %.2f m", m.colorizer.RangeMeters())
	case "-":
		m.colorizer.Narrow()
		m.status = fmt.Sprintf("range %.2f m", m.colorizer.RangeMeters())
	}
	return nil
}

func (m *consoleModel) handleCapture(msg captureMsg) tea.Cmd {
	m.inFlight = false
	switch {
	case msg.err == nil:
		now := time.Now()
		if !m.lastAt.IsZero() {
			if dt := now.Sub(m.lastAt).Seconds(); dt > 0 {
				if m.fps == 0 {
					m.fps = 1 / dt
				} else {
					m.fps += fpsSmoothing * (1/dt - m.fps)
				}
			}
		}
		m.lastAt = now
		m.capture = msg.capture
	case errors.Is(msg.err, session.ErrSkipCycle):
		m.skipped++
	case m.ctx.Err() != nil:
		return tea.Quit
	default:
		m.err = msg.err
		return tea.Quit
	}
	return m.next()
}

func (m *consoleModel) View() string {
	var b strings.Builder
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.capture != nil {
		depth := m.colorizer.Colorize(m.capture.Depth)
		b.WriteString(renderFitted(preview.SideBySide(m.capture.Color.ToRGBA(), depth), m.width, m.height-consoleChrome))
		b.WriteString("\n")
	} else {
		b.WriteString("waiting for frames...\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(consoleHelp))
	return b.String()
}

func (m *consoleModel) statusLine() string {
	state := "live"
	if m.paused {
		state = "paused"
	}
	if m.capture == nil {
		return fmt.Sprintf("%s · filters %s · skipped %d", state, onOff(m.session.FiltersEnabled()), m.skipped)
	}
	return fmt.Sprintf("%s · frame %d · %.1f fps · valid %.0f%% · filters %s · skipped %d · range %.2f m",
		state, m.capture.Seq, m.fps, 100*m.capture.ValidRatio(), onOff(m.session.FiltersEnabled()), m.skipped, m.colorizer.RangeMeters())
}

// Largest cell area with the aspect ratio of img that fits cols x rows. A cell is two pixels high.
func renderFitted(img image.Image, cols, rows int) string {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 || cols <= 0 || rows <= 0 {
		return ""
	}
	fitRows := cols * h / w / 2
	if fitRows > rows {
		fitRows = rows
		cols = rows * 2 * w / h
	}
	return preview.Render(img, cols, fitRows)
}

func (mapperCapture *MapperCapture) runConsole(ctx context.Context, s *session.Session) error {
	tools.SetLogOutput(stdio.Discard)

	model := newConsoleModel(ctx, s)
	program := tea.NewProgram(model, tea.WithAltScreen())
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			program.Quit()
		case <-done:
		}
	}()
	_, err := program.Run()
	close(done)

	tools.SetLogOutput(os.Stdout)
	if c := s.LastCapture(); c != nil {
		path, saveErr := s.Save(c, "")
		reportExport(io.ExportResult{Path: path, Points: c.Depth.Valid(), Err: saveErr})
	}
	if err != nil {
		return errors.Wrap(err, "console failed")
	}
	return model.err
}
