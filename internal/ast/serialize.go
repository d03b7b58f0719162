package ast

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates the little-endian, length-prefixed encoding of an AST
// subtree. The wire shape mirrors the teacher's own stdio protocol
// (cmd/esbuild/stdio_protocol.go): every string is a uint32 byte count
// followed by its bytes and every list a uint32 element count followed by
// its elements, so a Reader never has to guess at a terminator.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) WriteLoc(loc SourceLoc) {
	w.WriteI32(int32(loc.Line))
	w.WriteI32(int32(loc.Col))
}

// Reader walks a buffer produced by Writer, reporting the first short-read
// or malformed-tag error it hits rather than panicking: a corrupt module
// file is a Serialization diagnostic, not a crash.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return fmt.Errorf("ast: short read: need %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	return nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) ReadLoc() (SourceLoc, error) {
	line, err := r.ReadI32()
	if err != nil {
		return SourceLoc{}, err
	}
	col, err := r.ReadI32()
	if err != nil {
		return SourceLoc{}, err
	}
	return SourceLoc{Line: int(line), Col: int(col)}, nil
}

// absentTag marks a nil optional child (If.Else, VarDecl.Expr, ...) on the
// wire. It deliberately falls outside the real NodeKind range so it can
// never be confused with KindNull, the tag for an actual `null` literal
// expression.
const absentTag = uint8(numKinds)

// Serialize writes n and its subtree to w. A nil n is written as a single
// absentTag byte with no further payload.
func Serialize(w *Writer, n Node) {
	if n == nil {
		w.WriteU8(absentTag)
		return
	}
	w.WriteU8(uint8(n.Kind()))
	w.WriteLoc(n.Loc())

	switch v := n.(type) {
	case *Literal:
		w.WriteU8(uint8(v.LitKind))
		switch v.LitKind {
		case LiteralInt:
			w.WriteI32(v.IntVal)
		case LiteralFloat:
			w.WriteF32(v.FltVal)
		case LiteralString:
			w.WriteString(v.StrVal)
		}
	case *NullLiteral:
		// No payload.
	case *VariableRef:
		w.WriteString(v.Name)
	case *TypeExpr:
		w.WriteU8(uint8(v.ExprKind))
		switch v.ExprKind {
		case TypeExprName:
			w.WriteString(v.Name)
		case TypeExprArray:
			Serialize(w, v.Elem)
		}
	case *Import:
		w.WriteU32(uint32(len(v.Path)))
		for _, seg := range v.Path {
			w.WriteString(seg)
		}
	case *Directive:
		w.WriteString(v.Name)
		w.WriteU32(uint32(len(v.Args)))
		for _, a := range v.Args {
			w.WriteString(a.Key)
			w.WriteString(a.Value)
		}
		Serialize(w, v.Expr)
	case *VarDecl:
		w.WriteString(v.Name)
		Serialize(w, v.Type)
		Serialize(w, v.Expr)
	case *ConstDecl:
		w.WriteString(v.Name)
		Serialize(w, v.Type)
		Serialize(w, v.Expr)
	case *ArrayInit:
		w.WriteU32(uint32(len(v.Elems)))
		for _, e := range v.Elems {
			Serialize(w, e)
		}
	case *StructDef:
		w.WriteString(v.Name)
		w.WriteU32(uint32(len(v.Members)))
		for _, m := range v.Members {
			Serialize(w, m)
		}
	case *NamedInit:
		w.WriteString(v.Name)
		Serialize(w, v.Expr)
	case *NamedInitList:
		w.WriteString(v.StructName)
		w.WriteU32(uint32(len(v.Inits)))
		for _, in := range v.Inits {
			Serialize(w, in)
		}
	case *AnonInitList:
		w.WriteString(v.StructName)
		w.WriteU32(uint32(len(v.Elems)))
		for _, e := range v.Elems {
			Serialize(w, e)
		}
	case *Block:
		w.WriteU32(uint32(len(v.Stmts)))
		for _, s := range v.Stmts {
			Serialize(w, s)
		}
	case *Prototype:
		w.WriteString(v.Name)
		w.WriteU32(uint32(len(v.Params)))
		for _, p := range v.Params {
			w.WriteString(p.Name)
			Serialize(w, p.Type)
		}
		Serialize(w, v.ReturnType)
	case *Function:
		Serialize(w, v.Proto)
		if v.Body != nil {
			w.WriteBool(true)
			Serialize(w, v.Body)
		} else {
			w.WriteBool(false)
		}
	case *Unary:
		w.WriteString(string(v.Op))
		Serialize(w, v.Operand)
	case *Binary:
		w.WriteString(string(v.Op))
		Serialize(w, v.Lhs)
		Serialize(w, v.Rhs)
	case *Postfix:
		w.WriteString(string(v.Op))
		Serialize(w, v.Operand)
	case *Cast:
		Serialize(w, v.Expr)
		Serialize(w, v.Target)
	case *New:
		Serialize(w, v.Type)
		Serialize(w, v.Len)
	case *Access:
		Serialize(w, v.Lhs)
		w.WriteString(v.Field)
	case *NamespaceAccess:
		w.WriteString(v.Segment)
		Serialize(w, v.Expr)
	case *Subscript:
		Serialize(w, v.Receiver)
		Serialize(w, v.Index)
	case *Call:
		w.WriteString(v.Callee)
		w.WriteU32(uint32(len(v.Args)))
		for _, a := range v.Args {
			Serialize(w, a)
		}
	case *MacroInvocation:
		w.WriteString(v.Name)
		w.WriteU32(uint32(len(v.Exprs)))
		for _, e := range v.Exprs {
			Serialize(w, e)
		}
	case *Return:
		Serialize(w, v.Expr)
	case *If:
		Serialize(w, v.Cond)
		Serialize(w, v.Then)
		Serialize(w, v.Else)
	case *While:
		Serialize(w, v.Cond)
		Serialize(w, v.Body)
	case *Break:
		// No payload.
	case *Continue:
		// No payload.
	case *MacroDef:
		w.WriteString(v.Name)
		w.WriteU32(uint32(len(v.Branches)))
		for _, b := range v.Branches {
			Serialize(w, b)
		}
	case *MacroBranch:
		w.WriteU32(uint32(len(v.Args)))
		for _, a := range v.Args {
			w.WriteString(a.Name)
			w.WriteString(a.Kind)
		}
		w.WriteBool(v.EndsWithListCapture)
		Serialize(w, v.Body)
	case *MacroExprList:
		w.WriteU32(uint32(len(v.Exprs)))
		for _, e := range v.Exprs {
			Serialize(w, e)
		}
	default:
		panic(fmt.Sprintf("ast: Serialize: unhandled node type %T", n))
	}
}

// Deserialize reads one node (and its subtree) from r, the inverse of
// Serialize. It returns (nil, nil) for the absent-node tag; a KindNull tag
// decodes to a *NullLiteral like any other node.
func Deserialize(r *Reader) (Node, error) {
	tagByte, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if tagByte == absentTag {
		return nil, nil
	}
	tag := NodeKind(tagByte)

	loc, err := r.ReadLoc()
	if err != nil {
		return nil, err
	}

	switch tag {
	case KindNull:
		return &NullLiteral{Base: newBase(loc)}, nil
	case KindLiteral:
		litKind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		lit := &Literal{Base: newBase(loc), LitKind: LiteralKind(litKind)}
		switch lit.LitKind {
		case LiteralInt:
			if lit.IntVal, err = r.ReadI32(); err != nil {
				return nil, err
			}
		case LiteralFloat:
			if lit.FltVal, err = r.ReadF32(); err != nil {
				return nil, err
			}
		case LiteralString:
			if lit.StrVal, err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		return lit, nil
	case KindTypeExpr:
		exprKind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		te := &TypeExpr{Base: newBase(loc), ExprKind: TypeExprKind(exprKind), Resolved: InvalidTypeID}
		switch te.ExprKind {
		case TypeExprName:
			if te.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
		case TypeExprArray:
			elem, err := Deserialize(r)
			if err != nil {
				return nil, err
			}
			te.Elem, _ = elem.(*TypeExpr)
		}
		return te, nil
	case KindVariableRef:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return &VariableRef{Base: newBase(loc), Name: name, SymbolID: InvalidSymbolID}, nil
	case KindImport:
		count, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		path := make([]string, count)
		for i := range path {
			if path[i], err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		return &Import{Base: newBase(loc), Path: path}, nil
	case KindDirective:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		argCount, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		args := make([]AttributeArg, argCount)
		for i := range args {
			if args[i].Key, err = r.ReadString(); err != nil {
				return nil, err
			}
			if args[i].Value, err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Directive{Base: newBase(loc), Name: name, Args: args, Expr: expr}, nil
	case KindVarDecl, KindConstDecl:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		typ, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		te, _ := typ.(*TypeExpr)
		if tag == KindVarDecl {
			return &VarDecl{Base: newBase(loc), Name: name, Type: te, Expr: expr, SymbolID: InvalidSymbolID}, nil
		}
		return &ConstDecl{Base: newBase(loc), Name: name, Type: te, Expr: expr, SymbolID: InvalidSymbolID}, nil
	case KindArrayInit:
		elems, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &ArrayInit{Base: newBase(loc), Elems: elems}, nil
	case KindStructDef:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		memberNodes, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		members := make([]*VarDecl, len(memberNodes))
		for i, m := range memberNodes {
			members[i], _ = m.(*VarDecl)
		}
		return &StructDef{Base: newBase(loc), Name: name, Members: members}, nil
	case KindNamedInit:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &NamedInit{Base: newBase(loc), Name: name, Expr: expr}, nil
	case KindNamedInitList:
		structName, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		initNodes, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		inits := make([]*NamedInit, len(initNodes))
		for i, in := range initNodes {
			inits[i], _ = in.(*NamedInit)
		}
		return &NamedInitList{Base: newBase(loc), StructName: structName, Inits: inits}, nil
	case KindAnonInitList:
		structName, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		elems, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &AnonInitList{Base: newBase(loc), StructName: structName, Elems: elems}, nil
	case KindBlock:
		stmts, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &Block{Base: newBase(loc), Stmts: stmts}, nil
	case KindPrototype:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		paramCount, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		params := make([]Param, paramCount)
		for i := range params {
			if params[i].Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			typ, err := Deserialize(r)
			if err != nil {
				return nil, err
			}
			params[i].Type, _ = typ.(*TypeExpr)
			params[i].SymbolID = InvalidSymbolID
		}
		retNode, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		ret, _ := retNode.(*TypeExpr)
		return &Prototype{Base: newBase(loc), Name: name, Params: params, ReturnType: ret, SymbolID: InvalidSymbolID}, nil
	case KindFunction:
		protoNode, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		proto, _ := protoNode.(*Prototype)
		hasBody, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		var body *Block
		if hasBody {
			bodyNode, err := Deserialize(r)
			if err != nil {
				return nil, err
			}
			body, _ = bodyNode.(*Block)
		}
		return &Function{Base: newBase(loc), Proto: proto, Body: body}, nil
	case KindUnary:
		op, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		operand, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Unary{Base: newBase(loc), Op: UnaryOp(op), Operand: operand}, nil
	case KindBinary:
		op, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		lhs, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		rhs, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Binary{Base: newBase(loc), Op: BinaryOp(op), Lhs: lhs, Rhs: rhs}, nil
	case KindPostfix:
		op, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		operand, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Postfix{Base: newBase(loc), Op: PostfixOp(op), Operand: operand}, nil
	case KindCast:
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		targetNode, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		target, _ := targetNode.(*TypeExpr)
		return &Cast{Base: newBase(loc), Expr: expr, Target: target}, nil
	case KindNew:
		typNode, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		typ, _ := typNode.(*TypeExpr)
		length, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &New{Base: newBase(loc), Type: typ, Len: length}, nil
	case KindAccess:
		lhs, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		field, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return &Access{Base: newBase(loc), Lhs: lhs, Field: field, LhsType: InvalidTypeID}, nil
	case KindNamespaceAccess:
		segment, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &NamespaceAccess{Base: newBase(loc), Segment: segment, Expr: expr}, nil
	case KindSubscript:
		recv, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		idx, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Subscript{Base: newBase(loc), Receiver: recv, Index: idx}, nil
	case KindCall:
		callee, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		args, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &Call{Base: newBase(loc), Callee: callee, Args: args, SymbolID: InvalidSymbolID, ReturnType: InvalidTypeID}, nil
	case KindMacroInvocation:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		exprs, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &MacroInvocation{Base: newBase(loc), Name: name, Exprs: exprs}, nil
	case KindReturn:
		expr, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &Return{Base: newBase(loc), Expr: expr}, nil
	case KindIf:
		cond, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		then, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		els, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &If{Base: newBase(loc), Cond: cond, Then: then, Else: els}, nil
	case KindWhile:
		cond, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		body, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		return &While{Base: newBase(loc), Cond: cond, Body: body}, nil
	case KindBreak:
		return &Break{Base: newBase(loc)}, nil
	case KindContinue:
		return &Continue{Base: newBase(loc)}, nil
	case KindMacroDef:
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		branchNodes, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		branches := make([]*MacroBranch, len(branchNodes))
		for i, b := range branchNodes {
			branches[i], _ = b.(*MacroBranch)
		}
		return &MacroDef{Base: newBase(loc), Name: name, Branches: branches, SymbolID: InvalidSymbolID}, nil
	case KindMacroBranch:
		argCount, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		args := make([]MacroArg, argCount)
		for i := range args {
			if args[i].Name, err = r.ReadString(); err != nil {
				return nil, err
			}
			if args[i].Kind, err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		endsWithList, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		bodyNode, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		body, _ := bodyNode.(*Block)
		return &MacroBranch{Base: newBase(loc), Args: args, EndsWithListCapture: endsWithList, Body: body}, nil
	case KindMacroExprList:
		exprs, err := deserializeList(r)
		if err != nil {
			return nil, err
		}
		return &MacroExprList{Base: newBase(loc), Exprs: exprs}, nil
	default:
		return nil, fmt.Errorf("ast: Deserialize: unhandled node kind %s", tag)
	}
}

// ParserOutput is the contract an external lexer/parser hands to this
// pipeline: a module's root Block, serialized with Serialize. The
// front-to-middle-end never reads source text itself (lexing/parsing is
// out of scope — see DESIGN.md); cmd/slangc's compile command reads a
// ParserOutput file and calls ReadParserOutput to recover the root Block
// collect.Module, resolve.ResolveNames, etc. walk from there.
type ParserOutput struct {
	Root *Block
}

// WriteParserOutput serializes out.Root as a ParserOutput an external
// frontend would hand to cmd/slangc.
func WriteParserOutput(out ParserOutput) []byte {
	w := NewWriter()
	Serialize(w, out.Root)
	return w.Bytes()
}

// ReadParserOutput parses buf back into a ParserOutput, failing if the
// serialized node isn't a Block (a parser must always hand back a module,
// not a bare expression or statement).
func ReadParserOutput(buf []byte) (ParserOutput, error) {
	n, err := Deserialize(NewReader(buf))
	if err != nil {
		return ParserOutput{}, err
	}
	root, ok := n.(*Block)
	if !ok {
		return ParserOutput{}, fmt.Errorf("ast: ReadParserOutput: root node is %s, not a Block", n.Kind())
	}
	return ParserOutput{Root: root}, nil
}

func deserializeList(r *Reader) ([]Node, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, count)
	for i := range nodes {
		n, err := Deserialize(r)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}
