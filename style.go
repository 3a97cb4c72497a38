package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	faint   = lipgloss.NewStyle().Faint(true).Render
	label   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A67CF5")).Bold(true).Render
	warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")).Render
	star    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542")).Render("★")
)
