package shell

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
This file contains a participle grammar for the debugger shell. Each line is a
single command: a backend action, a pointer gesture at explicit coordinates, or
a local command that inspects or saves the current state.
*/

////////////////////////////////////////////////////////////////////////////////

var (
	Options = []participle.Option{ // nolint:gochecknoglobals
		participle.Lexer(
			lexer.MustSimple([]lexer.SimpleRule{
				{Name: "whitespace", Pattern: `\s+`},
				{Name: "Float", Pattern: `[-+]?\d*\.\d+([eE][-+]?\d+)?`},
				{Name: "Integer", Pattern: `[-+]?\d+`},
				{Name: "QuotedString", Pattern: `"(?:\\.|[^"])*"`},
				{Name: "Word", Pattern: `[a-zA-Z_/\.~?][a-zA-Z0-9_/\.~-]*`},
			}),
		),
		participle.Unquote("QuotedString"),
	}
)

// Command is one shell line.
type Command struct {
	Step     bool    `  @"step"`
	Reset    bool    `| @"reset"`
	Refresh  bool    `| @"refresh"`
	Relayout bool    `| @"relayout"`
	Delete   *int64  `| "delete" @Integer`
	Click    *Point  `| "click" @@`
	Drag     *Drag   `| "drag" @@`
	Hit      *Point  `| "hit" @@`
	Print    bool    `| @"print"`
	Save     *string `| "save" (@QuotedString | @Word)`
	Help     bool    `| @("help" | "?")`
	Quit     bool    `| @("quit" | "exit")`
}

// Point is a pair of surface coordinates.
type Point struct {
	X float64 `@(Float | Integer)`
	Y float64 `@(Float | Integer)`
}

// Drag is a gesture from one point to another.
type Drag struct {
	From Point `@@`
	To   Point `@@`
}

// NewParser returns a new parser for shell commands.
func NewParser() *participle.Parser[Command] {
	return participle.MustBuild[Command](Options...)
}
