// Package ui implements an interactive terminal countdown board using bubbletea's Elm architecture.
//
// The TUI has two tabs:
//  1. [AiringTab] : the current season from Jikan, each row with a live countdown
//  2. [MyListTab] : the user's Watching entries resolved by the watch engine, soonest first
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Countdowns run on a [countdown.Board]. Only the visible tab's rows have running presenters, and updates that
// arrive for a stopped or replaced presenter are discarded.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, enter, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
