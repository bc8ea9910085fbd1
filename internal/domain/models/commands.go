package models

import "strings"

// CommandType enumerates the chat commands the owner can send.
type CommandType string

const (
	CommandEggs     CommandType = "eggs"
	CommandTasks    CommandType = "tasks"
	CommandDone     CommandType = "done"
	CommandSpent    CommandType = "spent"
	CommandExpenses CommandType = "expenses"
	CommandChickens CommandType = "chickens"
	CommandReport   CommandType = "report"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"eggs":     CommandEggs,
	"egg":      CommandEggs,
	"tasks":    CommandTasks,
	"chores":   CommandTasks,
	"done":     CommandDone,
	"toggle":   CommandDone,
	"spent":    CommandSpent,
	"expense":  CommandSpent,
	"expenses": CommandExpenses,
	"chickens": CommandChickens,
	"flock":    CommandChickens,
	"report":   CommandReport,
	"summary":  CommandReport,
	"help":     CommandHelp,
}

// Command represents a parsed owner instruction extracted from chat text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The leading word selects the
// command (an optional "/" is ignored); the remaining words are its arguments with
// their original case preserved.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Type: CommandUnknown, Raw: message}
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
