package types

import "golang.org/x/exp/slices"

// LayoutStruct assigns byte offsets to ty.Members and fixes ty.Size/Align,
// implementing the struct branch of original_source's declarator.c
// struct_decl: offsets accumulate in declaration order, each aligned up to
// its member's alignment, and the struct's own size is the final offset
// aligned up to the struct's alignment (spec §3 invariant).
func LayoutStruct(ty *Type) {
	offset := 0
	bits := 0 // bits consumed in the current bit-field storage unit
	unit := 0 // byte size of the current bit-field storage unit

	for _, mem := range ty.Members {
		// close a partially filled storage unit before a member that does
		// not fit in it
		if bits > 0 && (!mem.IsBitfield || mem.BitWidth == 0 || bits+mem.BitWidth > mem.Type.Size*8) {
			offset += unit
			bits = 0
		}

		switch {
		case !mem.IsBitfield:
			offset = AlignUp(offset, mem.Align)
			mem.Offset = offset
			offset += mem.Type.Size

		case mem.BitWidth == 0:
			// a zero-width bit-field forces the next field into a new unit.
			offset = AlignUp(offset, mem.Type.Size)

		default:
			if bits == 0 {
				offset = AlignUp(offset, mem.Align)
				unit = mem.Type.Size
			}
			mem.Offset = offset
			mem.BitOffset = bits
			bits += mem.BitWidth
			if bits == unit*8 {
				offset += unit
				bits = 0
			}
		}
		if ty.Align < mem.Align {
			ty.Align = mem.Align
		}
	}
	if bits > 0 {
		offset += unit
	}
	ty.Size = AlignUp(offset, max(ty.Align, 1))
}

// LayoutUnion fixes ty.Size/Align for a union: every member starts at
// offset 0, and the union is as large as its largest member.
func LayoutUnion(ty *Type) {
	for _, mem := range ty.Members {
		mem.Offset = 0
		if ty.Align < mem.Align {
			ty.Align = mem.Align
		}
		if ty.Size < mem.Type.Size {
			ty.Size = mem.Type.Size
		}
	}
	ty.Size = AlignUp(ty.Size, max(ty.Align, 1))
}

// FindMember looks up name among ty.Members, recursing into anonymous
// struct/union members (the SUPPLEMENTED FEATURES §6 anonymous-member
// promotion), and returns the member plus the byte offset accumulated
// through any anonymous nesting.
func FindMember(ty *Type, name string) (*Member, int, bool) {
	if i := slices.IndexFunc(ty.Members, func(mem *Member) bool {
		return mem.Name != nil && mem.Name.Text() == name
	}); i >= 0 {
		return ty.Members[i], ty.Members[i].Offset, true
	}
	for _, mem := range ty.Members {
		if mem.Name == nil && IsStructUnion(mem.Type) {
			if inner, off, ok := FindMember(mem.Type, name); ok {
				return inner, mem.Offset + off, true
			}
		}
	}
	return nil, 0, false
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
