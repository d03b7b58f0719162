package errkind

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/logger"
)

// New builds a logger.Msg for a diagnostic of the given Kind at loc. file and
// lineText feed the source-excerpt rendering (logger.MsgLocation); lineText
// may be empty when the caller has no captured source line at hand.
func New(kind Kind, loc ast.SourceLoc, file, lineText, text string) logger.Msg {
	return logger.Msg{
		Kind: logger.Error,
		Data: logger.MsgData{
			Text: fmt.Sprintf("[%s] %s", kind, text),
			Location: &logger.MsgLocation{
				File:     file,
				Line:     loc.Line,
				Column:   loc.Col,
				LineText: lineText,
			},
		},
	}
}
