package asm

import (
	"fmt"
	"strings"
)

// Stage names the pipeline stage that produced an Error.
type Stage int

const (
	StageTokenizer Stage = iota
	StageParser
	StageSymbol
	StageLayout   // address-space overflow; fatal
	StageEncoding // operand does not fit its field; fatal
)

var stageNames = [...]string{
	StageTokenizer: "tokenizer error",
	StageParser:    "parser error",
	StageSymbol:    "symbol error",
	StageLayout:    "layout error",
	StageEncoding:  "encoding error",
}

func (s Stage) String() string {
	if int(s) >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error is a single structured assembly error with its source position.
type Error struct {
	Stage   Stage
	Message string
	Loc     SourceLocation
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Stage, e.Message, e.Loc)
}

func errorf(stage Stage, loc SourceLocation, format string, args ...any) *Error {
	return &Error{Stage: stage, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// ErrorList is an ordered aggregate of single errors. It is only ever one
// level deep: Assemble returns either a bare *Error or one ErrorList, never
// a list holding lists.
type ErrorList []*Error

func (el ErrorList) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(el))
	for _, e := range el {
		b.WriteString("\n\t")
		b.WriteString(e.Error())
	}
	return b.String()
}

// collapse turns an accumulated slice into the surfaced error value:
// nil for none, the error itself for one, an ErrorList otherwise.
func collapse(errs []*Error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return ErrorList(errs)
	}
}
