package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/instadash/internal/preview"
	"github.com/zjrosen/instadash/internal/ui/styles"
	"github.com/zjrosen/instadash/internal/validate"
	"github.com/zjrosen/instadash/internal/workflow"
)

const (
	minWidth  = 60
	minHeight = 20

	headerHeight = 1
	footerHeight = 2
	tempHeight   = 4
	buttonHeight = 1

	excerptLines = 6
)

// layout sizes the editors to the current window.
func (m *Model) layout() {
	lw, _, jh, ph := m.dimensions()
	m.jsonArea.SetWidth(max(lw-2, 10))
	m.jsonArea.SetHeight(max(jh-2, 1))
	m.prompt.SetWidth(max(lw-2, 10))
	m.prompt.SetHeight(max(ph-2, 1))
	m.pathInput.Width = max(m.width-12, 10)
	m.statusBar.Width = m.width
}

// dimensions returns the column widths and the editor panel heights.
func (m Model) dimensions() (leftW, rightW, jsonH, promptH int) {
	leftW = m.width / 2
	rightW = m.width - leftW
	body := max(m.height-headerHeight-footerHeight, 8)
	rest := max(body-tempHeight-buttonHeight, 6)
	jsonH = max(rest*3/5, 3)
	promptH = max(rest-jsonH, 3)
	return
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.width < minWidth || m.height < minHeight {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.WarningStyle.Render(fmt.Sprintf("Terminal too small (need %dx%d)", minWidth, minHeight)))
	}

	switch m.mode {
	case modeOffline:
		return m.offline.View()
	case modeHelp:
		return m.helpView
	case modeNotice:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ModalStyle.Render(m.notice+"\n\n"+styles.HintStyle.Render("press any key")))
	}

	st := m.ctrl.State()
	lw, rw, _, _ := m.dimensions()
	bodyH := m.height - headerHeight - footerHeight

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.zones.Mark(zoneJSON, m.jsonPanel(st, lw)),
		m.zones.Mark(zonePrompt, m.promptPanel(lw)),
		m.zones.Mark(zoneTemp, m.temperaturePanel(st, lw)),
		m.actionButtons(st),
	)
	right := m.previewPanel(st, rw, bodyH)
	body := lipgloss.NewStyle().Height(bodyH).MaxHeight(bodyH).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, left, right))

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		body,
		m.noticeLine(st),
		m.statusBar.View(m.keys),
	)
	return m.zones.Scan(view)
}

func (m Model) header() string {
	title := styles.TitleStyle.Render("✨ instadash") + " " +
		styles.MutedStyle.Render("Transform your data into beautiful, interactive dashboards")
	badge := m.healthBadge()
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(badge), 1)
	return title + strings.Repeat(" ", gap) + badge
}

func (m Model) healthBadge() string {
	switch {
	case m.checker == nil:
		return ""
	case !m.healthChecked:
		return styles.MutedStyle.Render("● checking service")
	case m.healthErr != nil:
		return styles.ErrorStyle.Render("● service offline")
	case m.health != nil && !m.health.Healthy():
		msg := m.health.Message
		if msg == "" {
			msg = "service degraded"
		}
		return styles.WarningStyle.Render("● " + msg)
	default:
		return styles.SuccessStyle.Render("● service ready")
	}
}

func (m Model) jsonPanel(st workflow.State, width int) string {
	_, _, h, _ := m.dimensions()
	title := "JSON Data"
	if m.jsonSource != "" {
		title += " · " + m.jsonSource
	}
	if m.watcher != nil && m.watcher.Watching() != "" {
		title += " (watching)"
	}
	if m.jsonOverflow {
		title += fmt.Sprintf(" (first %d lines, read-only)", jsonEditorMaxLines)
	}

	var badge string
	var color lipgloss.TerminalColor
	switch {
	case strings.TrimSpace(st.JSONText) == "":
	case !validate.ValidateJSON(st.JSONText).Valid:
		badge, color = "✗ invalid JSON", styles.StatusErrorColor
	case len(m.jsonIssues) > 0:
		badge, color = fmt.Sprintf("⚠ %d schema issue(s)", len(m.jsonIssues)), styles.StatusWarningColor
	default:
		badge, color = "✓ valid JSON", styles.StatusSuccessColor
	}
	if badge != "" {
		badge = lipgloss.NewStyle().Foreground(color).Render(badge)
	}

	return styles.Panel{
		Left:    title,
		Right:   badge,
		Width:   width,
		Height:  h,
		Focused: m.focus == focusJSON && m.mode == modeForm,
	}.Render(m.jsonArea.View())
}

func (m Model) promptPanel(width int) string {
	_, _, _, h := m.dimensions()
	return styles.Panel{
		Left:    "Dashboard Description",
		Right:   styles.FormatCounter(workflow.PromptLength(m.prompt.Value()), workflow.MaxPromptLength),
		Width:   width,
		Height:  h,
		Focused: m.focus == focusPrompt && m.mode == modeForm,
	}.Render(m.prompt.View())
}

func (m Model) temperaturePanel(st workflow.State, width int) string {
	t := st.Temperature
	meterW := max(width-30, 5)
	meter := lipgloss.NewStyle().Foreground(styles.TemperatureColor(t)).
		Render(styles.Meter(t/workflow.MaxTemperature, meterW))
	line := fmt.Sprintf("%s %s %s",
		styles.LabelStyle.Render(fmt.Sprintf("%.1f", t)),
		meter,
		styles.SubtitleStyle.Render(workflow.TemperatureLabel(t)))
	hint := styles.HintStyle.Render("Lower = more consistent results, Higher = more creative variations")

	return styles.Panel{
		Left:    "Temperature",
		Right:   styles.MutedStyle.Render("←/→"),
		Width:   width,
		Height:  tempHeight,
		Focused: m.focus == focusTemperature && m.mode == modeForm,
	}.Render(line + "\n" + hint)
}

func (m Model) actionButtons(st workflow.State) string {
	label, style := "✨ Generate Dashboard", styles.PrimaryButtonStyle
	switch {
	case st.Phase == workflow.PhasePending:
		label, style = m.spinner.View()+" Generating Dashboard...", styles.DisabledButtonStyle
	case !m.ctrl.CanGenerate():
		style = styles.DisabledButtonStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.zones.Mark(zoneGenerate, style.Render(label)), " ",
		m.zones.Mark(zoneUpload, styles.SecondaryButtonStyle.Render("Upload JSON")), " ",
		m.zones.Mark(zoneExample, styles.SecondaryButtonStyle.Render("Load Example")),
	)
}

func (m Model) previewPanel(st workflow.State, width, height int) string {
	inner := max(width-4, 10)
	frame, shown := m.renderer.Frame()

	var content string
	switch {
	case st.Phase == workflow.PhasePending:
		content = "\n\n" + lipgloss.PlaceHorizontal(inner, lipgloss.Center,
			m.spinner.View()+" "+styles.SubtitleStyle.Render("Generating your beautiful dashboard..."))
	case shown:
		content = m.artifactDetails(frame, inner)
	default:
		content = "\n\n" + lipgloss.PlaceHorizontal(inner, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center,
			styles.TitleStyle.Render("📊 No Dashboard Yet"),
			"",
			styles.MutedStyle.Render(styles.Wrap(
				"Enter your JSON data and description, then click \"Generate Dashboard\" to see the magic happen",
				min(inner, 50))),
		))
	}

	right := ""
	if shown {
		right = styles.MutedStyle.Render(fmt.Sprintf("rev %d", frame.Revision))
	}
	return styles.Panel{
		Left:   "Preview",
		Right:  right,
		Width:  width,
		Height: height,
	}.Render(lipgloss.NewStyle().Padding(0, 1).Render(content))
}

func (m Model) artifactDetails(frame preview.Frame, width int) string {
	s := frame.Summary
	title := s.Title
	if title == "" {
		title = "Untitled dashboard"
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.TruncateString(title, width)) + "\n")
	fmt.Fprintf(&b, "%s · %d lines\n", styles.FormatBytes(s.Bytes), s.Lines)
	b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("%d scripts · %d charts · %d styles", s.Scripts, s.Charts, s.Styles)) + "\n")
	if frame.Diff.Changed() {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("+%d", frame.Diff.Added)) + " " +
			styles.ErrorStyle.Render(fmt.Sprintf("-%d", frame.Diff.Removed)) +
			styles.MutedStyle.Render(" lines since last revision") + "\n")
	}
	if m.previewURL != "" {
		b.WriteString(styles.SubtitleStyle.Render("Preview: ") + styles.KeyStyle.Render(m.previewURL) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.zones.Mark(zoneCopy, styles.SecondaryButtonStyle.Render("Copy Code")), " ",
		m.zones.Mark(zoneDownload, styles.SecondaryButtonStyle.Render("Download HTML")), " ",
		m.zones.Mark(zonePreview, styles.PrimaryButtonStyle.Render("Open Preview")),
	))
	b.WriteString("\n\n")

	lines := strings.Split(frame.HTML, "\n")
	if len(lines) > excerptLines {
		lines = lines[:excerptLines]
	}
	for _, l := range lines {
		b.WriteString(styles.MutedStyle.Render(styles.TruncateString(strings.TrimRight(l, "\r"), width)) + "\n")
	}
	return b.String()
}

// noticeLine shows, in priority order, the upload prompt, the error
// banner, the success banner, a transient status, or a schema hint.
func (m Model) noticeLine(st workflow.State) string {
	switch {
	case m.mode == modeUpload:
		return m.pathInput.View() + "  " + styles.HintStyle.Render("enter load · esc cancel")
	case st.Error() != "":
		return styles.ErrorStyle.Render(styles.TruncateString("⚠ Error: "+st.Error(), m.width))
	case st.SuccessBanner:
		return styles.SuccessStyle.Render("✓ Dashboard generated successfully!")
	case m.status.text != "" && m.status.kind == statusError:
		return styles.ErrorStyle.Render(styles.TruncateString(m.status.text, m.width))
	case m.status.text != "":
		return styles.MutedStyle.Render(styles.TruncateString(m.status.text, m.width))
	case len(m.jsonIssues) > 0:
		return styles.WarningStyle.Render(styles.TruncateString(m.jsonIssues[0].String(), m.width))
	}
	return ""
}
