package cmd

import (
	"fibo_bot/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	marketStyle = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	messageStyles = map[models.MessageType]lipgloss.Style{
		models.MessageInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		models.MessageSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		models.MessageWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		models.MessageError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
	}
)

func messageStyle(t models.MessageType) lipgloss.Style {
	if s, ok := messageStyles[t]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
