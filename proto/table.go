package proto

// LocalTable maps local message types to their active definitions. It
// belongs to exactly one decode session. Normal headers address slots 0-15;
// the remaining slots are reachable through Install for transports that
// negotiate wider local types out of band.
type LocalTable struct {
	defs [256]*Definition
}

// Install binds def to def.LocalType, replacing any previous binding. The
// replaced definition, if any, is returned.
func (t *LocalTable) Install(def *Definition) *Definition {
	prev := t.defs[def.LocalType]
	t.defs[def.LocalType] = def
	return prev
}

// Lookup returns the active definition for local, or nil.
func (t *LocalTable) Lookup(local uint8) *Definition {
	return t.defs[local]
}

// Reset clears every binding.
func (t *LocalTable) Reset() {
	t.defs = [256]*Definition{}
}

// Defined lists the local types that currently have a definition.
func (t *LocalTable) Defined() []uint8 {
	var out []uint8
	for i, d := range t.defs {
		if d != nil {
			out = append(out, uint8(i))
		}
	}
	return out
}
