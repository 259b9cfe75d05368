package object

// SectionID is an opaque handle to a section.
type SectionID int

// Section is a named, contiguous region of output bytes with its own
// origin. AddrVar and SizeVar are allocated once, on section creation, and
// are never reassigned to a different section.
type Section struct {
	Name       string
	AddrVar    VarID
	SizeVar    VarID
	Origin     Expr
	HasOrigin  bool
	Fragments  []Fragment
}

// Content is the relocatable object produced by semantic analysis: an
// ordered list of sections plus the symbol table. It is read-only once
// linking begins.
type Content struct {
	Sections []Section
	Symbols  *SymbolTable
	Vars     *VarTable
}

// NewContent creates an empty object ready to receive sections.
func NewContent() *Content {
	return &Content{
		Symbols: NewSymbolTable(),
		Vars:    NewVarTable(),
	}
}

// AddSection creates a new section, allocating its addr/size variables, and
// returns its id. Sections appear in the object in declaration order.
func (c *Content) AddSection(name string) SectionID {
	addrVar := c.Vars.Define()
	sizeVar := c.Vars.Define()
	c.Sections = append(c.Sections, Section{Name: name, AddrVar: addrVar, SizeVar: sizeVar})
	return SectionID(len(c.Sections) - 1)
}

// Section returns a pointer to the section for id, so callers can append
// fragments or set its origin expression.
func (c *Content) Section(id SectionID) *Section {
	return &c.Sections[id]
}

// SetOrigin sets id's origin expression. Per spec this is only meaningful
// while the section has no fragments yet; the assembler enforces that by
// only calling this before the first AppendFragment on id.
func (c *Content) SetOrigin(id SectionID, origin Expr) {
	c.Sections[id].Origin = origin
	c.Sections[id].HasOrigin = true
}

// AppendFragment appends frag to the end of section id's fragment list.
func (c *Content) AppendFragment(id SectionID, frag Fragment) {
	c.Sections[id].Fragments = append(c.Sections[id].Fragments, frag)
}
