// Package tui provides the terminal side of kllc.
//
// It handles:
//   - Structured logging to the console and a rotated log file (Splog)
//   - Rendering the lifecycle as a step list (using lipgloss)
//   - Interactive prompts (using survey and bubbletea)
package tui
