// Package output renders command results for the terminal with lipgloss styles.
package output
