package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func loc(line, col int) SourceLoc { return SourceLoc{Line: line, Col: col} }

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{KindLiteral, "literal"},
		{KindIf, "if"},
		{KindWhile, "while"},
		{KindMacroInvocation, "macro-invocation"},
		{numKinds, "unknown-kind"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.kind.String())
	}
}

func sampleFunction() *Function {
	proto := NewPrototype(loc(1, 1), "add", []Param{
		{Name: "a", Type: NewNamedTypeExpr(loc(1, 8), "i32"), SymbolID: InvalidSymbolID},
		{Name: "b", Type: NewNamedTypeExpr(loc(1, 16), "i32"), SymbolID: InvalidSymbolID},
	}, NewNamedTypeExpr(loc(1, 24), "i32"))

	body := NewBlock(loc(1, 30), []Node{
		NewIf(loc(2, 1),
			NewBinary(loc(2, 5), ">", NewVariableRef(loc(2, 4), "a"), NewVariableRef(loc(2, 8), "b")),
			NewBlock(loc(2, 11), []Node{NewReturn(loc(3, 2), NewVariableRef(loc(3, 9), "a"))}),
			NewBlock(loc(4, 9), []Node{NewReturn(loc(5, 2), NewVariableRef(loc(5, 9), "b"))}),
		),
		NewWhile(loc(6, 1),
			NewBinary(loc(6, 8), "<", NewVariableRef(loc(6, 7), "a"), NewLiteral(loc(6, 11), Token{Kind: TokIntLiteral, Value: &LiteralValue{Int: 10}})),
			NewBlock(loc(6, 15), []Node{NewBreak(loc(7, 2))}),
		),
	})

	return NewFunction(loc(1, 1), proto, body)
}

func TestCloneIsIndependent(t *testing.T) {
	fn := sampleFunction()
	clone := fn.Clone().(*Function)

	require.Equal(t, fn.String(), clone.String())

	clone.Proto.Name = "mutated"
	require.Equal(t, "add", fn.Proto.Name, "mutating the clone must not affect the original")

	ifStmt := clone.Body.Stmts[0].(*If)
	ifStmt.Cond.(*Binary).Op = "<="
	original := fn.Body.Stmts[0].(*If)
	require.Equal(t, BinaryOp(">"), original.Cond.(*Binary).Op)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	branch := NewMacroBranch(loc(1, 1),
		[]MacroArg{{Name: "x", Kind: "expr"}},
		false,
		NewBlock(loc(1, 20), []Node{
			NewReturn(loc(1, 22), NewBinary(loc(1, 29), "+", NewVariableRef(loc(1, 29), "x"), NewVariableRef(loc(1, 33), "x"))),
		}),
	)
	def := NewMacroDef(loc(1, 1), "double", []*MacroBranch{branch})

	w := NewWriter()
	Serialize(w, def)

	got, err := Deserialize(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, def.String(), got.String())

	gotDef, ok := got.(*MacroDef)
	require.True(t, ok)
	require.Equal(t, "double", gotDef.Name)
	require.Len(t, gotDef.Branches, 1)
	require.Equal(t, "x", gotDef.Branches[0].Args[0].Name)
	require.False(t, gotDef.Branches[0].EndsWithListCapture)

	retStmt := gotDef.Branches[0].Body.Stmts[0].(*Return)
	bin := retStmt.Expr.(*Binary)
	require.Equal(t, BinaryOp("+"), bin.Op)
	require.Equal(t, "x", bin.Lhs.(*VariableRef).Name)
}

func TestSerializeNilOptionalChild(t *testing.T) {
	ifStmt := NewIf(loc(1, 1), NewVariableRef(loc(1, 4), "cond"), NewBlock(loc(1, 10), nil), nil)

	w := NewWriter()
	Serialize(w, ifStmt)

	got, err := Deserialize(NewReader(w.Bytes()))
	require.NoError(t, err)
	gotIf := got.(*If)
	require.Nil(t, gotIf.Else)
}

func TestMacroBranchScore(t *testing.T) {
	tests := []struct {
		name     string
		args     []MacroArg
		endsList bool
		argCount int
		want     int
	}{
		{"exact arity", []MacroArg{{Name: "a"}, {Name: "b"}}, false, 2, 3},
		{"exact arity mismatch", []MacroArg{{Name: "a"}, {Name: "b"}}, false, 1, 0},
		{"list capture exact empty", []MacroArg{{Name: "a"}, {Name: "rest"}}, true, 1, 2},
		{"list capture surplus", []MacroArg{{Name: "a"}, {Name: "rest"}}, true, 3, 1},
		{"list capture too few", []MacroArg{{Name: "a"}, {Name: "rest"}}, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewMacroBranch(loc(1, 1), tt.args, tt.endsList, NewBlock(loc(1, 1), nil))
			require.Equal(t, tt.want, b.Score(tt.argCount))
		})
	}
}

func TestSelectBranchAmbiguousTie(t *testing.T) {
	b1 := NewMacroBranch(loc(1, 1), []MacroArg{{Name: "a"}}, false, NewBlock(loc(1, 1), nil))
	b2 := NewMacroBranch(loc(2, 1), []MacroArg{{Name: "a"}}, false, NewBlock(loc(2, 1), nil))
	def := NewMacroDef(loc(1, 1), "m", []*MacroBranch{b1, b2})

	best, tie, ok := def.SelectBranch(1)
	require.True(t, ok)
	require.NotNil(t, best)
	require.NotNil(t, tie, "two branches with identical arity must report an ambiguous tie")
}

func TestSelectBranchNoMatch(t *testing.T) {
	b1 := NewMacroBranch(loc(1, 1), []MacroArg{{Name: "a"}, {Name: "b"}}, false, NewBlock(loc(1, 1), nil))
	def := NewMacroDef(loc(1, 1), "m", []*MacroBranch{b1})

	_, _, ok := def.SelectBranch(5)
	require.False(t, ok)
}

func TestVisitCountsEveryNode(t *testing.T) {
	fn := sampleFunction()
	// Proto (2 param types + 1 return type) + Function + Block + If + cond +
	// then-block + return + var-ref + else-block + return + var-ref + While +
	// cond + literal + var-ref(while lhs) + var-ref(binary lhs) + block +
	// break: just assert it's positive and stable, not an exact magic number.
	n := Count(fn)
	require.Greater(t, n, 10)
	require.Equal(t, n, Count(fn.Clone()))
}
