package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want CommandType
		args []string
	}{
		{"eggs", CommandEggs, nil},
		{"/Eggs +4", CommandEggs, []string{"+4"}},
		{"  chores ", CommandTasks, nil},
		{"done feed", CommandDone, []string{"feed"}},
		{"spent 12.5 Feed Bag", CommandSpent, []string{"12.5", "Feed", "Bag"}},
		{"expenses", CommandExpenses, nil},
		{"flock", CommandChickens, nil},
		{"summary", CommandReport, nil},
		{"HELP", CommandHelp, nil},
		{"hello there", CommandUnknown, []string{"there"}},
		{"", CommandUnknown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd := ParseCommand(tt.in)
			assert.Equal(t, tt.want, cmd.Type)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, tt.in, cmd.Raw)
		})
	}
}
