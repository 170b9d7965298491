// Package display is the terminal consumer of decoded MCDU screens.
//
// A bubbletea program ticks at a fixed rate; every tick drains the relay
// queue without blocking and redraws the 14x24 grid with lipgloss. When no
// terminal is attached, Headless consumes the same queue and logs each
// screen instead.
package display
