package object

// VarID is an opaque handle to a link-time variable (a section's addr/size,
// or a Reloc fragment's pinned location).
type VarID int

// VarTable holds every link-time variable's current interval. Refinement
// during linking only ever narrows an entry.
type VarTable struct {
	values []Value
}

// NewVarTable creates an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{}
}

// Define allocates a new variable, initially Unknown, and returns its id.
func (vt *VarTable) Define() VarID {
	vt.values = append(vt.values, UnknownValue)
	return VarID(len(vt.values) - 1)
}

// Get returns the current value of id.
func (vt *VarTable) Get(id VarID) Value {
	return vt.values[id]
}

// Refine intersects id's current value with incoming, and reports whether
// that changed anything (used to drive/verify the linker's fixed point).
func (vt *VarTable) Refine(id VarID, incoming Value) bool {
	cur := vt.values[id]
	next := cur.Intersect(incoming)
	changed := next != cur
	vt.values[id] = next
	return changed
}

// Len returns the number of variables defined so far.
func (vt *VarTable) Len() int { return len(vt.values) }
