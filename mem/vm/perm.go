package vm

import "strings"

// Perm is the permission bitset carried by a region.
type Perm uint8

// The permission bits. Execute, Write and Read follow the ELF program header
// flag values. PermTransientWrite marks a region that was made writable only
// for the duration of an image load.
const (
	PermExecute Perm = 1 << iota
	PermWrite
	PermRead
	PermTransientWrite
)

// MakePerm builds a Perm from individual flags.
func MakePerm(readable, writable, executable bool) Perm {
	var p Perm

	if readable {
		p |= PermRead
	}

	if writable {
		p |= PermWrite
	}

	if executable {
		p |= PermExecute
	}

	return p
}

// Has reports whether all the bits in q are set.
func (p Perm) Has(q Perm) bool {
	return p&q == q
}

func (p Perm) String() string {
	var sb strings.Builder

	flags := []struct {
		bit  Perm
		char byte
	}{
		{PermRead, 'r'},
		{PermWrite, 'w'},
		{PermExecute, 'x'},
		{PermTransientWrite, 't'},
	}

	for _, f := range flags {
		if p.Has(f.bit) {
			sb.WriteByte(f.char)
		} else {
			sb.WriteByte('-')
		}
	}

	return sb.String()
}
