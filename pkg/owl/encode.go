package owl

import (
	"fmt"

	"github.com/kvgraph/engine/pkg/tuple"
)

// Serialization uses pkg/tuple's order-preserving codec even though
// these values are never range-scanned (axioms, classes, and properties
// are always fetched by point lookup) — reusing one typed-tuple codec
// for every payload in the module, rather than introducing a second
// encoding scheme just for the Ontology Store, is what the Edge-Index
// Scanner also does for stored-property payloads: every key's value is
// an ordered tuple.

func encodeClass(c *Class) []byte {
	return tuple.Pack(tuple.String(c.IRI), tuple.String(c.Label), tuple.String(c.Comment))
}

func decodeClass(data []byte) (*Class, error) {
	els, err := tuple.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("owl: decode class: %w", err)
	}
	if len(els) != 3 {
		return nil, fmt.Errorf("owl: decode class: expected 3 fields, got %d", len(els))
	}
	return &Class{IRI: els[0].Str, Label: els[1].Str, Comment: els[2].Str}, nil
}

func encodeProperty(p *Property) []byte {
	return tuple.Pack(
		tuple.String(p.IRI),
		tuple.Int(int64(p.Kind)),
		tuple.String(p.Domain),
		tuple.String(p.Range),
		tuple.String(p.Inverse),
		tuple.Bool(p.Symmetric),
		tuple.Bool(p.Transitive),
		tuple.Bool(p.Functional),
		tuple.Bool(p.InverseFunc),
	)
}

func decodeProperty(data []byte) (*Property, error) {
	els, err := tuple.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("owl: decode property: %w", err)
	}
	if len(els) != 9 {
		return nil, fmt.Errorf("owl: decode property: expected 9 fields, got %d", len(els))
	}
	return &Property{
		IRI:         els[0].Str,
		Kind:        PropertyKind(els[1].Int),
		Domain:      els[2].Str,
		Range:       els[3].Str,
		Inverse:     els[4].Str,
		Symmetric:   els[5].Bool,
		Transitive:  els[6].Bool,
		Functional:  els[7].Bool,
		InverseFunc: els[8].Bool,
	}, nil
}

// encodeAxiom packs an axiom into a flat tuple. Chain (a variable-length
// list of property IRIs) is encoded as a count followed by that many
// strings so the fixed-position fields after it still decode correctly.
func encodeAxiom(a *Axiom) []byte {
	els := []tuple.Element{
		tuple.Int(int64(a.Kind)),
		tuple.String(encodeClassExpr(a.Sub)),
		tuple.String(encodeClassExpr(a.Super)),
		tuple.String(a.PropertyA),
		tuple.String(a.PropertyB),
		tuple.Int(int64(len(a.Chain))),
	}
	for _, c := range a.Chain {
		els = append(els, tuple.String(c))
	}
	els = append(els,
		tuple.String(a.Individual),
		tuple.String(a.Object),
		tuple.String(a.Literal),
		tuple.Bool(a.HasLiteral),
	)
	return tuple.Pack(els...)
}

func decodeAxiom(data []byte) (*Axiom, error) {
	els, err := tuple.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("owl: decode axiom: %w", err)
	}
	if len(els) < 6 {
		return nil, fmt.Errorf("owl: decode axiom: truncated header")
	}
	a := &Axiom{
		Kind:      AxiomKind(els[0].Int),
		PropertyA: els[3].Str,
		PropertyB: els[4].Str,
	}
	if sub, err := decodeClassExpr(els[1].Str); err == nil {
		a.Sub = sub
	}
	if sup, err := decodeClassExpr(els[2].Str); err == nil {
		a.Super = sup
	}
	chainLen := int(els[5].Int)
	idx := 6
	if idx+chainLen > len(els) {
		return nil, fmt.Errorf("owl: decode axiom: truncated chain")
	}
	for i := 0; i < chainLen; i++ {
		a.Chain = append(a.Chain, els[idx+i].Str)
	}
	idx += chainLen
	if idx+4 > len(els) {
		return nil, fmt.Errorf("owl: decode axiom: truncated trailer")
	}
	a.Individual = els[idx].Str
	a.Object = els[idx+1].Str
	a.Literal = els[idx+2].Str
	a.HasLiteral = els[idx+3].Bool
	return a, nil
}

// encodeClassExpr renders a ClassExpr to a small self-delimiting string
// form (not pkg/tuple's binary codec, since a ClassExpr is a recursive
// tree rather than a flat element list). Every variable-length field
// (an operand, a property IRI, an individual) is written length-prefixed
// so nested composite expressions never need an escaping scheme: a
// field boundary is always known by its declared byte length, never by
// scanning for a separator that a nested expression could itself
// contain. An empty expr encodes as "".
func encodeClassExpr(c *ClassExpr) string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case ExprClass:
		return "C" + field(c.IRI)
	case ExprIntersection:
		return "I" + fieldList(encodeExprs(c.Operands))
	case ExprUnion:
		return "U" + fieldList(encodeExprs(c.Operands))
	case ExprComplement:
		return "N" + field(encodeClassExpr(c.Operands[0]))
	case ExprSomeValuesFrom:
		return "E" + field(c.Property) + field(encodeClassExpr(c.Filler))
	case ExprAllValuesFrom:
		return "A" + field(c.Property) + field(encodeClassExpr(c.Filler))
	case ExprMinCardinality:
		return "L" + field(fmt.Sprintf("%d", c.Cardinality)) + field(c.Property) + field(encodeClassExpr(c.Filler))
	case ExprMaxCardinality:
		return "G" + field(fmt.Sprintf("%d", c.Cardinality)) + field(c.Property) + field(encodeClassExpr(c.Filler))
	case ExprOneOf:
		return "O" + fieldList(c.Individuals)
	default:
		return ""
	}
}

func encodeExprs(ops []*ClassExpr) []string {
	strs := make([]string, len(ops))
	for i, o := range ops {
		strs[i] = encodeClassExpr(o)
	}
	return strs
}

// field writes s as "<byte-length>:<s>".
func field(s string) string {
	return fmt.Sprintf("%d:%s", len(s), s)
}

// fieldList writes a count followed by each element as a field, so the
// reader knows exactly how many fields to pull without scanning.
func fieldList(elems []string) string {
	out := fmt.Sprintf("%d:", len(elems))
	for _, e := range elems {
		out += field(e)
	}
	return out
}

// decodeClassExpr is the inverse of encodeClassExpr. It is intentionally
// forgiving: malformed input decodes to an error rather than a panic,
// and the caller (decodeAxiom) treats a decode failure as "no
// expression" rather than aborting the whole axiom.
func decodeClassExpr(s string) (*ClassExpr, error) {
	if s == "" {
		return nil, nil
	}
	tag := s[0]
	r := &reader{s: s[1:]}
	switch tag {
	case 'C':
		iri, err := r.field()
		if err != nil {
			return nil, err
		}
		return NamedClass(iri), nil
	case 'I', 'U':
		parts, err := r.fieldList()
		if err != nil {
			return nil, err
		}
		ops := make([]*ClassExpr, 0, len(parts))
		for _, p := range parts {
			op, err := decodeClassExpr(p)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		}
		if tag == 'I' {
			return &ClassExpr{Kind: ExprIntersection, Operands: ops}, nil
		}
		return &ClassExpr{Kind: ExprUnion, Operands: ops}, nil
	case 'N':
		inner, err := r.field()
		if err != nil {
			return nil, err
		}
		op, err := decodeClassExpr(inner)
		if err != nil {
			return nil, err
		}
		return &ClassExpr{Kind: ExprComplement, Operands: []*ClassExpr{op}}, nil
	case 'E', 'A':
		prop, err := r.field()
		if err != nil {
			return nil, err
		}
		fillerStr, err := r.field()
		if err != nil {
			return nil, err
		}
		filler, err := decodeClassExpr(fillerStr)
		if err != nil {
			return nil, err
		}
		kind := ExprSomeValuesFrom
		if tag == 'A' {
			kind = ExprAllValuesFrom
		}
		return &ClassExpr{Kind: kind, Property: prop, Filler: filler}, nil
	case 'L', 'G':
		nStr, err := r.field()
		if err != nil {
			return nil, err
		}
		prop, err := r.field()
		if err != nil {
			return nil, err
		}
		fillerStr, err := r.field()
		if err != nil {
			return nil, err
		}
		n := 0
		fmt.Sscanf(nStr, "%d", &n)
		filler, err := decodeClassExpr(fillerStr)
		if err != nil {
			return nil, err
		}
		kind := ExprMinCardinality
		if tag == 'G' {
			kind = ExprMaxCardinality
		}
		return &ClassExpr{Kind: kind, Cardinality: n, Property: prop, Filler: filler}, nil
	case 'O':
		individuals, err := r.fieldList()
		if err != nil {
			return nil, err
		}
		return &ClassExpr{Kind: ExprOneOf, Individuals: individuals}, nil
	default:
		return nil, fmt.Errorf("owl: unknown class expression tag %q", s)
	}
}

// reader pulls successive length-prefixed fields off a string produced
// by field/fieldList.
type reader struct{ s string }

func (r *reader) field() (string, error) {
	colon := -1
	for i := 0; i < len(r.s); i++ {
		if r.s[i] == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return "", fmt.Errorf("owl: malformed field in %q", r.s)
	}
	n := 0
	if _, err := fmt.Sscanf(r.s[:colon], "%d", &n); err != nil {
		return "", fmt.Errorf("owl: malformed field length in %q: %w", r.s, err)
	}
	start := colon + 1
	if start+n > len(r.s) {
		return "", fmt.Errorf("owl: truncated field in %q", r.s)
	}
	val := r.s[start : start+n]
	r.s = r.s[start+n:]
	return val, nil
}

func (r *reader) fieldList() ([]string, error) {
	countStr, err := r.fieldCount()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, countStr)
	for i := 0; i < countStr; i++ {
		v, err := r.field()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fieldCount reads the bare "<n>:" count prefix fieldList writes ahead
// of its elements.
func (r *reader) fieldCount() (int, error) {
	colon := -1
	for i := 0; i < len(r.s); i++ {
		if r.s[i] == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return 0, fmt.Errorf("owl: malformed field count in %q", r.s)
	}
	n := 0
	if _, err := fmt.Sscanf(r.s[:colon], "%d", &n); err != nil {
		return 0, fmt.Errorf("owl: malformed field count in %q: %w", r.s, err)
	}
	r.s = r.s[colon+1:]
	return n, nil
}
