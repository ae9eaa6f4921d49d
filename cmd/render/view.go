package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pipelined.dev/render"
	"pipelined.dev/render/peaks"
)

const (
	seekStep    = 5.0
	refreshRate = 50 * time.Millisecond
	meterWidth  = 30
)

type (
	// peaksMsg is sent when builder added samples to the cache.
	peaksMsg struct{}
	tickMsg  time.Time
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	waveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	clipStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

type viewCmd struct {
	File string `arg:"" type:"existingfile" help:"Audio file"`
	Loop bool   `help:"Repeat the file"`
}

// Run shows the waveform while it's being built and plays the file.
func (c *viewCmd) Run(g *globals) error {
	var program atomic.Pointer[tea.Program]
	doc, err := g.open(c.File, func() {
		if p := program.Load(); p != nil {
			p.Send(peaksMsg{})
		}
	})
	if err != nil {
		return err
	}
	defer doc.Close()
	m := newModel(filepath.Base(c.File), doc, g.config.VUPeak, c.Loop)

	dev, err := g.playback(doc)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	program.Store(p)
	if _, err := p.Run(); err != nil {
		shutdown(dev)
		return err
	}
	return shutdown(dev)
}

// model is the waveform view state.
type model struct {
	name     string
	doc      *render.Document
	peakMode bool
	loop     bool
	width    int
	height   int
}

// newModel returns view of the document with loop state applied to it.
func newModel(name string, doc *render.Document, peakMode, loop bool) model {
	doc.SetLoop(loop)
	return model{
		name:     name,
		doc:      doc,
		peakMode: peakMode,
		loop:     loop,
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts refresh ticks.
func (m model) Init() tea.Cmd {
	return tick()
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tick()
	case peaksMsg:
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.doc.Pause()
		return m, tea.Quit
	case " ":
		if m.doc.Playing() {
			m.doc.Pause()
		} else {
			m.doc.Play()
		}
	case "l":
		m.loop = !m.loop
		m.doc.SetLoop(m.loop)
	case "left":
		m.seek(-seekStep)
	case "right":
		m.seek(seekStep)
	case "home":
		m.seekTo(0)
	}
	return m, nil
}

func (m model) seek(seconds float64) {
	src := m.doc.Source()
	m.seekTo(src.Cursor() + frames(src.SampleRate(), seconds))
}

func (m model) seekTo(frame int) {
	total := m.doc.Source().Frames()
	if frame < 0 {
		frame = 0
	}
	if frame > total {
		frame = total
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.doc.Seek(ctx, frame)
}

// View renders the waveform.
func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	var b strings.Builder
	state := "paused"
	if m.doc.Playing() {
		state = "playing"
	}
	if m.loop {
		state += ", loop"
	}
	fmt.Fprintf(&b, "%s  %s  [%s]\n", titleStyle.Render(m.name), position(m.doc), state)

	cache := m.doc.Peaks()
	if !cache.Complete() {
		done := float64(cache.Consumed()) / float64(cache.Frames())
		b.WriteString(progressStyle.Render(fmt.Sprintf("building peaks %3.0f%%", done*100)))
	}
	b.WriteString("\n")

	src := m.doc.Source()
	channels := src.Channels()
	// header, progress, meters per channel and help.
	rows := (m.height - 3 - channels) / channels
	if rows < 1 {
		rows = 1
	}
	cursor := -1
	if src.Frames() > 0 {
		cursor = src.Cursor() * m.width / src.Frames()
	}
	for ch := 0; ch < channels; ch++ {
		for _, line := range waveform(cache, ch, m.width, rows) {
			b.WriteString(withCursor(line, cursor))
			b.WriteString("\n")
		}
	}

	out := m.doc.ProcessGraph().Output()
	for ch := 0; ch < out.Channels(); ch++ {
		v := out.VU(ch)
		if !m.peakMode {
			v = math.Sqrt(v)
		}
		fmt.Fprintf(&b, "%d %s\n", ch+1, meter(v, meterWidth))
	}
	if out.Clipped() {
		b.WriteString(clipStyle.Render("CLIP") + " ")
	}
	b.WriteString(helpStyle.Render("space play/pause • ←/→ seek • home start • l loop • q quit"))
	return b.String()
}

func withCursor(line string, cursor int) string {
	runes := []rune(line)
	if cursor < 0 || cursor >= len(runes) {
		return waveStyle.Render(line)
	}
	return waveStyle.Render(string(runes[:cursor])) +
		cursorStyle.Render(string(runes[cursor])) +
		waveStyle.Render(string(runes[cursor+1:]))
}

// waveform draws channel ch of the cache into rows lines of width columns.
// Only finished buckets are drawn.
func waveform(cache *peaks.Cache, ch, width, rows int) []string {
	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	if !cache.Valid() || width <= 0 {
		return lines(grid)
	}
	perColumn := float64(cache.Frames()) / float64(width)
	l := cache.Level(cache.LevelFor(perColumn))
	div := float64(l.Division())
	written := l.Written()
	for x := 0; x < width; x++ {
		from := int(float64(x) * perColumn / div)
		to := int(float64(x+1) * perColumn / div)
		if to <= from {
			to = from + 1
		}
		if to > written {
			to = written
		}
		if from >= to {
			continue
		}
		s := l.Range(ch, from, to)
		top, bottom := row(float64(s.Max), rows), row(float64(s.Min), rows)
		for r := top; r <= bottom; r++ {
			grid[r][x] = '█'
		}
	}
	return lines(grid)
}

// row returns the line of value v in [-1, 1]; 1 is the top line.
func row(v float64, rows int) int {
	r := int((1 - v) / 2 * float64(rows))
	if r < 0 {
		return 0
	}
	if r >= rows {
		return rows - 1
	}
	return r
}

func lines(grid [][]rune) []string {
	result := make([]string, len(grid))
	for i := range grid {
		result[i] = string(grid[i])
	}
	return result
}

// meter draws level v in [0, 1] as a bar of width cells.
func meter(v float64, width int) string {
	n := int(math.Min(1, math.Max(0, v)) * float64(width))
	return strings.Repeat("■", n) + strings.Repeat("·", width-n)
}
