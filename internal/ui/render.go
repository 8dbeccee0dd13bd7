package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/moor/internal/resource"
	"github.com/five82/moor/internal/state"
)

// View implements tea.Model.
func (m Model) View() string {
	left, right := m.columnWidths()
	bodyHeight := max(m.height-2, 6)

	lists := m.renderLists(left, bodyHeight)
	detail := m.renderDetail(right, bodyHeight)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, lists, detail),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	parts := []string{logoStyle.Render("moor")}
	if m.opts.Version != "" {
		parts = append(parts, mutedStyle.Render(m.opts.Version))
	}
	if m.opts.SocketPath != "" {
		parts = append(parts, mutedStyle.Render(m.opts.SocketPath))
	}
	if collectionOffline(m.snap) {
		parts = append(parts, dangerStyle.Render("DAEMON UNREACHABLE"), warningStyle.Render("Retrying..."))
	}
	if m.err != nil {
		parts = append(parts, warningStyle.Render(m.err.Error()))
	}
	return ansi.Truncate(strings.Join(parts, "  "), m.width, "…")
}

func collectionOffline(snap state.Snapshot) bool {
	return snap.Containers.IsOffline() || snap.Images.IsOffline() || snap.Volumes.IsOffline()
}

func (m Model) renderFooter() string {
	bindings := m.keys.help(m.filtering)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, keyStyle.Render(h.Key)+" "+mutedStyle.Render(h.Desc))
	}
	return ansi.Truncate(strings.Join(parts, "  "), m.width, "…")
}

func (m Model) renderLists(width, height int) string {
	// Three stacked panes, each with a two-line border.
	inner := max(height/3-2, 1)
	c := m.snap.Containers
	i := m.snap.Images
	v := m.snap.Volumes

	containers := listPane{
		title:    fmt.Sprintf("Containers (%d)", len(c.Items)),
		rows:     containerRows(c.Items),
		selected: resource.IndexOf(c.Items, c.Selected),
		status:   collectionStatus(c.Loaded, len(c.Items), c.LastError, "containers"),
	}
	images := listPane{
		title:    fmt.Sprintf("Images (%d)", len(i.Items)),
		rows:     imageRows(i.Items),
		selected: resource.IndexOf(i.Items, i.Selected),
		status:   collectionStatus(i.Loaded, len(i.Items), i.LastError, "images"),
	}
	volumes := listPane{
		title:    fmt.Sprintf("Volumes (%d)", len(v.Items)),
		rows:     volumeRows(v.Items),
		selected: resource.IndexOf(v.Items, v.Selected),
		status:   collectionStatus(v.Loaded, len(v.Items), v.LastError, "volumes"),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		containers.render(width, inner, m.focus == paneContainers),
		images.render(width, inner, m.focus == paneImages),
		volumes.render(width, inner, m.focus == paneVolumes),
	)
}

type listPane struct {
	title    string
	rows     []string
	selected int
	status   string
}

func (p listPane) render(width, height int, focused bool) string {
	inner := max(width-4, 4)
	lines := []string{titleStyle.Render(p.title)}
	if p.status != "" {
		lines = append(lines, p.status)
	}

	visible := max(height-len(lines), 1)
	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := min(start+visible, len(p.rows))
	for idx := start; idx < end; idx++ {
		row := ansi.Truncate(p.rows[idx], inner-2, "…")
		if idx == p.selected {
			lines = append(lines, selectedStyle.Render("› ")+row)
		} else {
			lines = append(lines, "  "+row)
		}
	}
	return paneFor(focused).Width(width - 2).Height(height).Render(strings.Join(lines, "\n"))
}

// collectionStatus explains an empty or failing list.
func collectionStatus(loaded bool, n int, err error, noun string) string {
	switch {
	case err != nil:
		return dangerStyle.Render("error: " + err.Error())
	case !loaded:
		return mutedStyle.Render("loading…")
	case n == 0:
		return mutedStyle.Render("no " + noun + " found")
	default:
		return ""
	}
}

func containerRows(items []resource.Container) []string {
	rows := make([]string, 0, len(items))
	for _, c := range items {
		style := healthStyle(c.Health())
		rows = append(rows, style.Render("●")+" "+textStyle.Render(c.Name)+" "+mutedStyle.Render(c.State))
	}
	return rows
}

func imageRows(items []resource.Image) []string {
	rows := make([]string, 0, len(items))
	for _, img := range items {
		rows = append(rows, textStyle.Render(img.Reference())+" "+mutedStyle.Render(img.Size))
	}
	return rows
}

func volumeRows(items []resource.Volume) []string {
	rows := make([]string, 0, len(items))
	for _, v := range items {
		rows = append(rows, textStyle.Render(v.Name)+" "+mutedStyle.Render(v.Driver))
	}
	return rows
}

func (m Model) renderDetail(width, height int) string {
	var body string
	switch m.focus {
	case paneImages:
		body = m.renderHistory(width - 4)
	case paneVolumes:
		body = m.renderVolume()
	default:
		body = m.renderLogs()
	}
	return paneFor(m.focus == paneLogs).Width(width - 2).Height(height - 2).Render(body)
}

func (m Model) renderLogs() string {
	active, ok := m.snap.Containers.Active()
	if !ok {
		return mutedStyle.Render("no container selected")
	}

	title := []string{
		titleStyle.Render(active.Name),
		mutedStyle.Render(active.Image),
		healthStyle(active.Health()).Render(active.Status),
	}
	if m.logs.Filter != "" {
		title = append(title, warningStyle.Render("filter: "+m.logs.Filter))
	}
	if m.logs.Paused {
		title = append(title, warningStyle.Render(fmt.Sprintf("PAUSED (+%d bytes)", m.logs.PendingLen)))
	}
	if m.logs.Ended {
		title = append(title, mutedStyle.Render("stream ended"))
	}

	lines := []string{strings.Join(title, "  ")}
	if m.logs.Err != nil {
		lines = append(lines, dangerStyle.Render("log stream failed: "+m.logs.Err.Error()))
	}
	if m.logs.ReadErr != nil {
		lines = append(lines, warningStyle.Render("log read stopped: "+m.logs.ReadErr.Error()))
	}
	lines = append(lines, m.viewport.View())
	if m.filtering {
		lines = append(lines, m.input.View())
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory(width int) string {
	img, ok := m.snap.Images.Active()
	if !ok {
		return mutedStyle.Render("no image selected")
	}
	lines := []string{titleStyle.Render(img.Reference()) + "  " + mutedStyle.Render(img.Created+"  "+img.Size)}

	h := m.snap.History
	switch {
	case h.ImageID != img.ID:
		lines = append(lines, mutedStyle.Render("loading history…"))
	case h.Err != nil:
		lines = append(lines, dangerStyle.Render("history unavailable: "+h.Err.Error()))
	default:
		for _, e := range h.Entries {
			row := fmt.Sprintf("%-12s  %-10s  %-14s  %s", e.ID, e.Size, e.Created, e.Command)
			lines = append(lines, ansi.Truncate(row, width, "…"))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderVolume() string {
	v, ok := m.snap.Volumes.Active()
	if !ok {
		return mutedStyle.Render("no volume selected")
	}
	lines := []string{
		titleStyle.Render(v.Name),
		field("Driver", v.Driver),
		field("Scope", v.Scope),
		field("Mountpoint", v.Mountpoint),
	}
	lines = append(lines, mapFields("Labels", v.Labels)...)
	lines = append(lines, mapFields("Options", v.Options)...)
	lines = append(lines, mapFields("Status", v.Status)...)
	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return mutedStyle.Render(label+": ") + textStyle.Render(value)
}

func mapFields(label string, m map[string]string) []string {
	if len(m) == 0 {
		return []string{field(label, "")}
	}
	lines := []string{mutedStyle.Render(label + ":")}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		lines = append(lines, "  "+textStyle.Render(k+"="+m[k]))
	}
	return lines
}
