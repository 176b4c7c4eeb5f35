// Package classify normalizes raw inbound text and resolves it into one of
// three intents: a global command, a numeric menu choice, or free text for
// state-specific interpretation.
package classify

import (
	"log/slog"
	"strconv"
	"strings"
)

// Kind is the coarse intent of an inbound message.
type Kind string

const (
	// KindGlobalCommand is a reserved word that overrides any state.
	KindGlobalCommand Kind = "global_command"
	// KindNumeric is a positive integer, interpreted as a 1-based menu index.
	KindNumeric Kind = "numeric"
	// KindText is anything else, carried as a normalized string.
	KindText Kind = "text"
)

// Command is the action requested by a reserved global word.
type Command string

const (
	// CommandResetToMain discards the in-progress flow and shows the main menu.
	CommandResetToMain Command = "reset_to_main"
	// CommandTerminate ends the conversation and clears the session.
	CommandTerminate Command = "terminate"
	// CommandShowHelp shows the command list without leaving the current state.
	CommandShowHelp Command = "show_help"
)

// Input is a classified inbound message.
type Input struct {
	Kind    Kind
	Command Command // set when Kind == KindGlobalCommand
	Index   int     // set when Kind == KindNumeric, 1-based
	Text    string  // normalized (trimmed, case-folded) input, always set
}

// Reserved global command words. Users must always be able to escape a stuck
// flow, so these match regardless of the current state. None of them parse as
// integers, so there is no ambiguity with numeric choices.
var globalCommands = map[string]Command{
	"home": CommandResetToMain,
	"main": CommandResetToMain,
	"menu": CommandResetToMain,

	"exit":    CommandTerminate,
	"stop":    CommandTerminate,
	"quit":    CommandTerminate,
	"end":     CommandTerminate,
	"cancel":  CommandTerminate,
	"bye":     CommandTerminate,
	"goodbye": CommandTerminate,

	"help":     CommandShowHelp,
	"commands": CommandShowHelp,
	"?":        CommandShowHelp,
	"info":     CommandShowHelp,
}

// Classify normalizes raw input and resolves its intent. Empty input comes
// back as KindText with an empty Text; menu-displaying states treat that as
// "redisplay the current menu".
func Classify(raw string) Input {
	text := strings.ToLower(strings.TrimSpace(raw))

	if cmd, ok := globalCommands[text]; ok {
		slog.Debug("Classify matched global command", "text", text, "command", cmd)
		return Input{Kind: KindGlobalCommand, Command: cmd, Text: text}
	}

	if n, err := strconv.Atoi(text); err == nil && n > 0 {
		return Input{Kind: KindNumeric, Index: n, Text: text}
	}

	return Input{Kind: KindText, Text: text}
}
