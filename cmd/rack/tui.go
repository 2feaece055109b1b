package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/modules"
	"github.com/dudk/rack/output"
)

var (
	colorCyan  = lipgloss.Color("14")
	colorGreen = lipgloss.Color("10")
	colorRed   = lipgloss.Color("9")
	colorDim   = lipgloss.Color("8")

	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleOK    = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarn  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleDim   = lipgloss.NewStyle().Foreground(colorDim)
	styleBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

const (
	volumeStep = 0.05
	scopeWidth = 64
	meterWidth = 32
	maxOctave  = 8
)

var sparks = []rune("▁▂▃▄▅▆▇█")

// noteKeys maps the home row to semitones above C of the current octave.
var noteKeys = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6,
	"g": 7, "y": 8, "h": 9, "u": 10, "j": 11, "k": 12,
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// player drives the output from the ui loop. Rack is only touched from
// Update, so it's never accessed concurrently.
type player struct {
	session *session
	output  *output.Output
	patch   string

	octave    int
	report    output.Report
	frames    int64
	overloads int
	status    string
	err       error
}

func newPlayer(s *session, out *output.Output, patch string) *player {
	return &player{
		session: s,
		output:  out,
		patch:   patch,
		octave:  4,
	}
}

func (p *player) Init() tea.Cmd {
	return tick()
}

func (p *player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		r, err := p.output.Tick()
		if err != nil {
			p.err = err
			return p, tea.Quit
		}
		p.report = r
		p.frames += int64(r.Frames)
		if r.Overloaded {
			p.overloads++
		}
		return p, tick()
	case tea.KeyMsg:
		return p, p.key(msg.String())
	}
	return p, nil
}

func (p *player) key(k string) tea.Cmd {
	switch k {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case " ":
		p.output.SetMuted(!p.output.Muted())
	case "+", "=":
		p.output.SetVolume(p.output.Volume() + volumeStep)
	case "-":
		p.output.SetVolume(p.output.Volume() - volumeStep)
	case "r":
		if err := p.output.Reinit(); err != nil {
			p.status = err.Error()
		} else {
			p.status = "reinitializing device"
		}
	case "p":
		p.toggleSampler()
	case "x":
		if p.session.keyboard != nil {
			p.session.keyboard.Release()
		}
	case "z":
		if p.octave > 0 {
			p.octave--
		}
	case "c":
		if p.octave < maxOctave {
			p.octave++
		}
	default:
		if semitones, ok := noteKeys[k]; ok && p.session.keyboard != nil {
			p.session.keyboard.Press(modules.Note{Octave: p.octave}.Transpose(semitones))
		}
	}
	return nil
}

func (p *player) toggleSampler() {
	s := p.session.sampler
	switch {
	case s == nil:
	case s.Playing():
		s.Pause()
	case s.Len() == 0:
		p.status = "sample is not loaded"
	default:
		s.Play()
	}
}

func (p *player) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("rack · " + p.patch))
	b.WriteString("\n\n")

	state := styleOK.Render(p.report.State.String())
	if p.report.State == output.DeviceLost {
		state = styleWarn.Render(p.report.State.String())
	}
	fmt.Fprintf(&b, "%s  %d Hz  volume %3.0f%%", state, p.report.SampleRate, p.output.Volume()*100)
	if p.output.Muted() {
		b.WriteString("  " + styleWarn.Render("muted"))
	}
	if p.report.Overloaded {
		b.WriteString("  " + styleWarn.Render("overload"))
	}
	if n := p.output.Underruns(); n > 0 {
		b.WriteString("  " + styleWarn.Render(fmt.Sprintf("underruns %d", n)))
	}
	b.WriteString("\n")
	b.WriteString(meter(p.output.Amplitude()))
	b.WriteString("\n\n")

	b.WriteString(styleBox.Render(p.instances()))
	b.WriteString("\n")
	if p.session.scope != nil {
		b.WriteString(sparkline(p.session.scope.Points(), scopeWidth))
		b.WriteString("\n")
	}
	if p.session.keyboard != nil {
		b.WriteString(styleDim.Render(fmt.Sprintf("octave %d", p.octave)))
		b.WriteString("\n")
	}
	if p.status != "" {
		b.WriteString(p.status)
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(p.help()))
	return b.String()
}

func (p *player) instances() string {
	r := p.session.rack
	order, err := r.Order()
	if err != nil {
		return err.Error()
	}
	lines := make([]string, 0, len(order))
	for _, h := range order {
		desc, _ := r.Description(h)
		line := fmt.Sprintf("%-14s %s", desc.Name, styleDim.Render(h.Short()))
		if m, ok := r.Module(h); ok {
			if d, ok := m.(module.Describer); ok {
				line += "  " + d.Describe()
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (p *player) help() string {
	keys := []string{"space mute", "+/- volume", "r reinit"}
	if p.session.keyboard != nil {
		keys = append(keys, "a..k notes", "x release", "z/c octave")
	}
	if p.session.sampler != nil {
		keys = append(keys, "p play/pause")
	}
	return strings.Join(append(keys, "q quit"), "  ")
}

// meter renders amplitude in [0, 1].
func meter(amp float64) string {
	n := int(math.Round(math.Min(math.Max(amp, 0), 1) * meterWidth))
	return fmt.Sprintf("%s%s %.2f",
		styleOK.Render(strings.Repeat("█", n)),
		styleDim.Render(strings.Repeat("░", meterWidth-n)),
		amp)
}

// sparkline downsamples points in [-1, 1] to width columns.
func sparkline(points []float64, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if len(points) < width {
		width = len(points)
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		v := points[i*len(points)/width]
		v = math.Min(math.Max(v, -1), 1)
		b.WriteRune(sparks[int(math.Round((v+1)/2*float64(len(sparks)-1)))])
	}
	return b.String()
}

// modulesTable lists ports of every module kind.
func modulesTable(descs []*module.Description) string {
	rows := [][]string{}
	for _, desc := range descs {
		ports := append(append([]module.PortDescription{}, desc.Inputs...), desc.Outputs...)
		for i, p := range ports {
			kind := ""
			if i == 0 {
				kind = desc.Kind
			}
			rows = append(rows, []string{
				kind,
				p.ID.Role,
				p.Direction.String(),
				string(p.ID.Type),
				p.Format(p.DefaultValue()),
			})
		}
	}
	headerStyle := lipgloss.NewStyle().Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "Port", "Dir", "Type", "Default").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return styleTitle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
