package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/handle"
	"github.com/skystor/uplink-bridge/uplink"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type snapshot struct {
	stats    bridge.Stats
	byKind   map[handle.Kind]int
	handles  int
	pins     int64
	ops      uint64
	errors   uint64
	workload config
}

type tickMsg time.Time

type monitorModel struct {
	client  *uplink.Client
	work    *workload
	cfg     config
	cancel  context.CancelFunc
	ctx     context.Context
	spin    spinner.Model
	snap    snapshot
	started time.Time
}

func newMonitorModel(ctx context.Context, cancel context.CancelFunc, client *uplink.Client, w *workload, cfg config) *monitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &monitorModel{
		client:  client,
		work:    w,
		cfg:     cfg,
		cancel:  cancel,
		ctx:     ctx,
		spin:    sp,
		started: time.Now(),
	}
}

func (m *monitorModel) refresh() snapshot {
	return snapshot{
		stats:    m.client.Stats(),
		byKind:   m.client.HandlesByKind(),
		handles:  m.client.Handles(),
		pins:     m.client.PinBalance(),
		ops:      m.work.ops(),
		errors:   m.work.errors(),
		workload: m.cfg,
	}
}

func (m *monitorModel) tick() tea.Cmd {
	return tea.Tick(time.Duration(m.cfg.RefreshMillis)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) Init() tea.Cmd {
	m.snap = m.refresh()
	return tea.Batch(m.spin.Tick, m.tick())
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		m.snap = m.refresh()
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *monitorModel) View() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(titleStyle.Render("bridgetop"))
	b.WriteString(fmt.Sprintf(" %s up %s\n\n", m.spin.View(), time.Since(m.started).Truncate(time.Second)))

	b.WriteString(fmt.Sprintf("%s %s workers, queue %s, %s writers, %s buckets\n\n",
		labelStyle.Render("workload"),
		valueStyle.Render(fmt.Sprint(m.cfg.Workers)),
		valueStyle.Render(fmt.Sprint(m.cfg.QueueDepth)),
		valueStyle.Render(fmt.Sprint(m.cfg.Writers)),
		valueStyle.Render(fmt.Sprint(m.cfg.Buckets))))

	b.WriteString(row("dispatched", fmt.Sprint(s.stats.Dispatched)))
	b.WriteString(row("executed", fmt.Sprint(s.stats.Executed)))
	b.WriteString(row("completed", fmt.Sprint(s.stats.Completed)))
	b.WriteString(row("cancelled", fmt.Sprint(s.stats.Cancelled)))
	b.WriteString(row("inflight", fmt.Sprint(s.stats.Inflight)))
	b.WriteString(row("workload ops", fmt.Sprint(s.ops)))
	if s.errors > 0 {
		b.WriteString(row("workload errors", warnStyle.Render(fmt.Sprint(s.errors))))
	} else {
		b.WriteString(row("workload errors", "0"))
	}

	pins := valueStyle.Render(fmt.Sprint(s.pins))
	if s.pins < 0 {
		pins = warnStyle.Render(fmt.Sprint(s.pins))
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(pad("pinned buffers")), pins))

	b.WriteString(fmt.Sprintf("\n%s %d live\n", labelStyle.Render("handles"), s.handles))
	kinds := make([]handle.Kind, 0, len(s.byKind))
	for k := range s.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(pad(k.String())),
			valueStyle.Render(fmt.Sprint(s.byKind[k]))))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func row(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(pad(label)), valueStyle.Render(value))
}

func pad(s string) string {
	const width = 16
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func runInteractive(ctx context.Context, cancel context.CancelFunc, client *uplink.Client, w *workload, cfg config) error {
	p := tea.NewProgram(newMonitorModel(ctx, cancel, client, w, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
