package edgeindex

import (
	"errors"
	"fmt"

	"github.com/kvgraph/engine/pkg/kv"
	"github.com/kvgraph/engine/pkg/record"
	"github.com/kvgraph/engine/pkg/tuple"
)

// ScanPattern is a bound-prefix pattern over an edge's structural
// components: each of Subject/Predicate/Object/Graph is either a bound
// literal value or unbound (nil).
type ScanPattern struct {
	Subject   *string
	Predicate *string
	Object    *string
	Graph     *string
}

func (p ScanPattern) value(pos Position) (*string, bool) {
	switch pos {
	case PosFrom:
		return p.Subject, true
	case PosEdge:
		return p.Predicate, true
	case PosTo:
		return p.Object, true
	case PosGraph:
		return p.Graph, true
	default:
		return nil, false
	}
}

// CompareOp is a property-field pushdown comparator operator.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpLt
	OpLe
	OpGt
	OpGe
	OpContains
)

// Comparator filters on a single stored property field against a typed
// literal value. Value is never another variable.
type Comparator struct {
	Field string
	Op    CompareOp
	Value tuple.Element
}

// ErrNotPushable is returned by Scan when at least one supplied
// Comparator references a non-stored field or a structural component;
// the caller must retain ALL of the supplied filters as a residual
// post-filter and re-invoke Scan with none.
var ErrNotPushable = errors.New("edgeindex: comparator is not pushable into this index")

// EdgeRecord is one decoded result of a scan: the four structural
// components (Graph is "" when the index carries no graph component)
// plus the record's stored property fields.
type EdgeRecord struct {
	From   string
	Edge   string
	To     string
	Graph  string
	Fields []record.Field
}

func (r *EdgeRecord) field(name string) (tuple.Element, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return tuple.Element{}, false
}

// Scanner performs streamed ranged reads against one edge index,
// selecting the permutation whose leading key components are the
// maximal bound prefix of a ScanPattern, and optionally applying a
// property-field pushdown filter during the scan.
type Scanner struct {
	desc      *Descriptor
	batchSize int
}

// DefaultBatchSize is the default number of decoded records the Scanner
// will hand off before suspending for the next KV round trip.
const DefaultBatchSize = 100

// NewScanner validates desc and returns a Scanner over it.
// desc.StoredFieldNames is asserted as the sole source of truth for
// pushdown eligibility at construction time.
func NewScanner(desc *Descriptor) (*Scanner, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{desc: desc, batchSize: DefaultBatchSize}, nil
}

// WithBatchSize overrides the default streaming batch size.
func (s *Scanner) WithBatchSize(n int) *Scanner {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// selectPermutation picks the permutation with the longest bound
// leading-component prefix. Ties are broken first by preferring a
// permutation whose bound Graph term falls within that matched prefix,
// then by ascending discriminator: prefer the permutation that places
// the bound graph term as early as the greedy match allows.
func (s *Scanner) selectPermutation(pattern ScanPattern) (Permutation, int) {
	perms := s.desc.Permutations()
	best := perms[0]
	bestLen := -1
	bestGraphIn := false

	for _, p := range perms {
		n := 0
		graphIn := false
		for _, pos := range p.Order {
			v, known := pattern.value(pos)
			if !known || v == nil {
				break
			}
			n++
			if pos == PosGraph {
				graphIn = true
			}
		}
		if n > bestLen || (n == bestLen && graphIn && !bestGraphIn) {
			best, bestLen, bestGraphIn = p, n, graphIn
		}
	}
	return best, bestLen
}

func (s *Scanner) prefixBytes(pattern ScanPattern, perm Permutation, boundLen int) []byte {
	elems := perm.prefixElements(s.desc.Prefix)
	for i := 0; i < boundLen; i++ {
		v, _ := pattern.value(perm.Order[i])
		elems = append(elems, tuple.String(*v))
	}
	return tuple.Pack(elems...)
}

// validateFilters returns ErrNotPushable if any comparator references a
// field this index does not store.
func (s *Scanner) validateFilters(filters []Comparator) error {
	for _, f := range filters {
		if !s.desc.IsStoredField(f.Field) {
			return fmt.Errorf("%w: field %q", ErrNotPushable, f.Field)
		}
	}
	return nil
}

// Scan issues one ranged scan for pattern and returns a lazy,
// single-shot result iterator. If filters is non-empty and every
// comparator references a stored field, the filter is applied as a
// post-decode predicate during the scan and non-matching records are
// never emitted. If any comparator is not pushable, Scan returns
// ErrNotPushable and no iterator; the caller must retry with
// filters=nil and apply the whole filter set itself.
func (s *Scanner) Scan(txn kv.Transaction, pattern ScanPattern, filters []Comparator) (*ResultIterator, error) {
	if err := s.validateFilters(filters); err != nil {
		return nil, err
	}

	perm, boundLen := s.selectPermutation(pattern)
	prefix := s.prefixBytes(pattern, perm, boundLen)
	begin, end := kv.PrefixRange(prefix)

	var it kv.Iterator
	var err error
	if bs, ok := txn.(kv.BatchScanner); ok {
		it, err = bs.ScanBatch(begin, end, s.batchSize)
	} else {
		it, err = txn.Scan(begin, end)
	}
	if err != nil {
		return nil, fmt.Errorf("edgeindex: scan: %w", err)
	}

	return &ResultIterator{
		desc:      s.desc,
		perm:      perm,
		it:        it,
		filters:   filters,
		batchSize: s.batchSize,
	}, nil
}

// ResultIterator streams decoded EdgeRecords matching a Scan call.
type ResultIterator struct {
	desc      *Descriptor
	perm      Permutation
	it        kv.Iterator
	filters   []Comparator
	batchSize int
	current   *EdgeRecord
	closed    bool
	err       error
}

// Next advances to the next matching record, applying any pushdown
// filter. It returns false at end of stream or on error (check Err).
func (ri *ResultIterator) Next() bool {
	if ri.closed || ri.err != nil {
		return false
	}
	for ri.it.Next() {
		rec, err := ri.decode()
		if err != nil {
			ri.err = err
			return false
		}
		if ri.matches(rec) {
			ri.current = rec
			return true
		}
	}
	return false
}

// Record returns the current decoded record. Valid only after Next
// returned true.
func (ri *ResultIterator) Record() *EdgeRecord { return ri.current }

// Err returns any error encountered during iteration.
func (ri *ResultIterator) Err() error { return ri.err }

// Close releases the underlying KV iterator.
func (ri *ResultIterator) Close() error {
	if ri.closed {
		return nil
	}
	ri.closed = true
	return ri.it.Close()
}

func (ri *ResultIterator) decode() (*EdgeRecord, error) {
	key := ri.it.Key()
	elems, err := tuple.Unpack(key)
	if err != nil {
		return nil, fmt.Errorf("edgeindex: decode key: %w", err)
	}
	// elems[0] = index prefix bytes, elems[1] = discriminator int,
	// elems[2:] = structural components in permutation order.
	if len(elems) < 2+len(ri.perm.Order) {
		return nil, fmt.Errorf("edgeindex: short key: %d elements for %d-component permutation", len(elems), len(ri.perm.Order))
	}
	components := elems[2:]

	rec := &EdgeRecord{}
	for i, pos := range ri.perm.Order {
		v := components[i].Str
		switch pos {
		case PosFrom:
			rec.From = v
		case PosEdge:
			rec.Edge = v
		case PosTo:
			rec.To = v
		case PosGraph:
			rec.Graph = v
		case PosID:
			// identity is not surfaced on EdgeRecord; callers needing it
			// can look it up by (from, edge, to) if the index is unique
			// enough, or configure ID as a stored field.
		}
	}

	val, err := ri.it.Value()
	if err != nil {
		return nil, fmt.Errorf("edgeindex: decode value: %w", err)
	}
	payloadElems, err := tuple.Unpack(val)
	if err != nil {
		return nil, fmt.Errorf("edgeindex: decode payload: %w", err)
	}
	for i, name := range ri.desc.StoredFieldNames {
		if i < len(payloadElems) {
			rec.Fields = append(rec.Fields, record.Field{Name: name, Value: payloadElems[i]})
		}
	}
	return rec, nil
}

func (ri *ResultIterator) matches(rec *EdgeRecord) bool {
	for _, f := range ri.filters {
		v, ok := rec.field(f.Field)
		if !ok {
			return false
		}
		if !compareMatches(v, f.Op, f.Value) {
			return false
		}
	}
	return true
}

func compareMatches(actual tuple.Element, op CompareOp, want tuple.Element) bool {
	if op == OpContains {
		return actual.Kind == tuple.KindString && want.Kind == tuple.KindString &&
			containsSubstring(actual.Str, want.Str)
	}
	c, ok := compareElements(actual, want)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return c == 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

// compareElements orders two tuple elements of the same kind. Mixed
// kinds (other than int/double numeric promotion) are never equal.
func compareElements(a, b tuple.Element) (int, bool) {
	if a.Kind == tuple.KindInt && b.Kind == tuple.KindDouble {
		return compareFloat(float64(a.Int), b.Double), true
	}
	if a.Kind == tuple.KindDouble && b.Kind == tuple.KindInt {
		return compareFloat(a.Double, float64(b.Int)), true
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case tuple.KindString:
		return compareStrings(a.Str, b.Str), true
	case tuple.KindInt:
		return compareInt(a.Int, b.Int), true
	case tuple.KindDouble:
		return compareFloat(a.Double, b.Double), true
	case tuple.KindBool:
		return compareBool(a.Bool, b.Bool), true
	case tuple.KindBytes:
		return compareBytes(a.Bytes, b.Bytes), true
	default:
		return 0, false
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func containsSubstring(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
