package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/movementinfra/movectl/internal/types"
)

// Movement brand-inspired color palette
const (
	movementYellow = "#FFDA34" // brand yellow – title accent
	movementDark   = "#1A1A1A" // near black – title bar background
	movementSlate  = "#8B9CB6" // blue-grey – table headers, help text
	movementGreen  = "#2ECC71" // green – ready, deployed, validated
	movementAmber  = "#F5A623" // amber – pending states
	movementRed    = "#E74C3C" // red – failed
	movementWhite  = "#FFFFFF" // white – values
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(movementYellow)).
			Background(lipgloss.Color(movementDark)).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementSlate)).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementWhite))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementSlate)).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(movementGreen))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementAmber))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementRed))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(movementSlate))
)

// renderSnapshot renders one status snapshot as styled text. Used both by
// the one-shot report and the watch TUI.
func renderSnapshot(snapshot *StatusSnapshot) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Deployment Status"))
	b.WriteString("\n\n")

	deployment := snapshot.Deployment
	b.WriteString(labelStyle.Render("     Cluster: "))
	b.WriteString(valueStyle.Render(deployment.Name))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("      Region: "))
	b.WriteString(valueStyle.Render(deployment.Region))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("   Namespace: "))
	b.WriteString(valueStyle.Render(deployment.Namespace))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("   Lifecycle: "))
	b.WriteString(styledLifecycle(deployment.GetCurrentState()))
	b.WriteString("\n\n")

	if len(snapshot.Releases) > 0 {
		b.WriteString(renderReleaseTable(snapshot.Releases))
		b.WriteString("\n")
	}
	if len(snapshot.Pods) > 0 {
		b.WriteString(renderPodTable(snapshot.Pods))
		b.WriteString("\n")
	}
	if len(snapshot.Services) > 0 {
		b.WriteString(renderServiceTable(snapshot.Services))
	}

	if len(snapshot.Releases) == 0 && len(snapshot.Pods) == 0 {
		b.WriteString("  No workloads deployed.\n")
	}

	return b.String()
}

func styledLifecycle(state string) string {
	switch state {
	case types.StateValidated, types.StateWorkloadsDeployed:
		return okStyle.Render(state)
	case types.StateInfraProvisioned, types.StateUninitialized:
		return pendingStyle.Render(state)
	case types.StateDestroyed:
		return failedStyle.Render(state)
	default:
		return valueStyle.Render(state)
	}
}

func renderReleaseTable(releases []ReleaseStatus) string {
	nameW, statusW, chartW := len("RELEASE"), len("STATUS"), len("CHART")
	for _, release := range releases {
		nameW = max(nameW, len(release.Name))
		statusW = max(statusW, len(release.Status))
		chartW = max(chartW, len(release.Chart))
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("RELEASE", nameW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("STATUS", statusW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("CHART", chartW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("REVISION"))
	b.WriteString("\n")

	for _, release := range releases {
		b.WriteString("  ")
		b.WriteString(padRight(release.Name, nameW))
		b.WriteString("  ")
		b.WriteString(padStyled(styledReleaseStatus(release.Status), statusW, len(release.Status)))
		b.WriteString("  ")
		b.WriteString(padRight(release.Chart, chartW))
		b.WriteString(fmt.Sprintf("  %d", release.Revision))
		b.WriteString("\n")
	}
	return b.String()
}

func styledReleaseStatus(status string) string {
	switch status {
	case "deployed":
		return okStyle.Render(status)
	case "failed":
		return failedStyle.Render(status)
	default:
		return pendingStyle.Render(status)
	}
}

func renderPodTable(pods []PodStatus) string {
	nameW, phaseW := len("POD"), len("PHASE")
	for _, pod := range pods {
		nameW = max(nameW, len(pod.Name))
		phaseW = max(phaseW, len(pod.Phase))
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("POD", nameW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("PHASE", phaseW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("READY"))
	b.WriteString("\n")

	for _, pod := range pods {
		b.WriteString("  ")
		b.WriteString(padRight(pod.Name, nameW))
		b.WriteString("  ")
		b.WriteString(padStyled(styledPhase(pod.Phase), phaseW, len(pod.Phase)))
		b.WriteString("  ")
		if pod.Ready {
			b.WriteString(okStyle.Render("yes"))
		} else {
			b.WriteString(pendingStyle.Render("no"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func styledPhase(phase string) string {
	switch phase {
	case "Running", "Succeeded":
		return okStyle.Render(phase)
	case "Failed":
		return failedStyle.Render(phase)
	default:
		return pendingStyle.Render(phase)
	}
}

func renderServiceTable(services []ServiceStatus) string {
	nameW, typeW := len("SERVICE"), len("TYPE")
	for _, service := range services {
		nameW = max(nameW, len(service.Name))
		typeW = max(typeW, len(service.Type))
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("SERVICE", nameW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(padRight("TYPE", typeW)))
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("EXTERNAL HOST"))
	b.WriteString("\n")

	for _, service := range services {
		b.WriteString("  ")
		b.WriteString(padRight(service.Name, nameW))
		b.WriteString("  ")
		b.WriteString(padRight(service.Type, typeW))
		b.WriteString("  ")
		if service.ExternalHost != "" {
			b.WriteString(valueStyle.Render(service.ExternalHost))
		} else {
			b.WriteString(helpStyle.Render("-"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padStyled right-pads a styled string given its visible width.
func padStyled(styled string, width int, visibleLen int) string {
	if visibleLen >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-visibleLen)
}
