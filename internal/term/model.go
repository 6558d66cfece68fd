package term

// ModelKey identifies one state-variable assignment within a Model: a
// symbol at a given offset.
type ModelKey struct {
	Sym    *Sym
	Offset Offset
}

// Model is the assignment returned by the SMT oracle on a SAT answer:
// (Sym, Offset) -> Cst. Models are transient, held only during a single
// check-sat/get-model/deactivate cycle.
type Model struct {
	values map[ModelKey]*Cst
}

// NewModel creates an empty, mutable model.
func NewModel() *Model {
	return &Model{values: make(map[ModelKey]*Cst)}
}

// Set records the value of sym at offset.
func (m *Model) Set(sym *Sym, offset Offset, c *Cst) {
	m.values[ModelKey{Sym: sym, Offset: offset}] = c
}

// Get looks up the value of sym at offset.
func (m *Model) Get(sym *Sym, offset Offset) (*Cst, bool) {
	c, ok := m.values[ModelKey{Sym: sym, Offset: offset}]
	return c, ok
}

// Len reports how many assignments the model carries.
func (m *Model) Len() int { return len(m.values) }
