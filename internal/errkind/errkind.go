// Package errkind enumerates the closed set of error categories the
// compiler can report (spec §7). Every phase tags its diagnostics with one
// of these so tooling (and tests) can assert on error classification rather
// than matching message text.
package errkind

type Kind uint8

const (
	Lex Kind = iota
	Syntax
	Redefinition
	UnresolvedName
	AmbiguousName
	MacroArgOutsideBranch
	TypeMismatch
	InvalidCast
	WrongArity
	UnknownDirective
	MacroNoMatch
	MacroAmbiguousMatch
	DivideByZero
	InvalidFormatString
	MissingReturn
	BreakContinueOutsideLoop
	ImportNotFound
	ImportCycle
	Serialization
	Internal
)

var names = [...]string{
	Lex:                      "lex",
	Syntax:                   "syntax",
	Redefinition:             "redefinition",
	UnresolvedName:           "unresolved-name",
	AmbiguousName:            "ambiguous-name",
	MacroArgOutsideBranch:    "macro-arg-outside-branch",
	TypeMismatch:             "type-mismatch",
	InvalidCast:              "invalid-cast",
	WrongArity:               "wrong-arity",
	UnknownDirective:         "unknown-directive",
	MacroNoMatch:             "macro-no-match",
	MacroAmbiguousMatch:      "macro-ambiguous-match",
	DivideByZero:             "divide-by-zero",
	InvalidFormatString:      "invalid-format-string",
	MissingReturn:            "missing-return",
	BreakContinueOutsideLoop: "break-continue-outside-loop",
	ImportNotFound:           "import-not-found",
	ImportCycle:              "import-cycle",
	Serialization:            "serialization",
	Internal:                 "internal",
}

func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown-error-kind"
}
