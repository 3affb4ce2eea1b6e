// Package regfile provides the architectural register file and its
// renaming table (the Register Alias Table).
package regfile

// NumRegs is the number of architectural registers, x0..x31.
const NumRegs = 32

// RegisterFile holds committed architectural values and, per register, the
// ROB tag of its most recent in-flight writer (0 means no pending writer).
type RegisterFile struct {
	arch   [NumRegs]uint32
	rename [NumRegs]uint32
}

// New creates a RegisterFile with all registers zeroed and unrenamed.
func New() *RegisterFile {
	return &RegisterFile{}
}

// Read returns (value, tag) for register r. x0 always reads as (0, 0).
func (rf *RegisterFile) Read(r uint8) (uint32, uint32) {
	if r == 0 {
		return 0, 0
	}
	return rf.arch[r], rf.rename[r]
}

// Preset unconditionally marks r as renamed to robID, at dispatch-time
// allocation. Callers must not preset r=0.
func (rf *RegisterFile) Preset(r uint8, robID uint32) {
	if r == 0 {
		return
	}
	rf.rename[r] = robID
}

// Writeback commits value into r's architectural slot at commit time. The
// rename entry for r is cleared only if it still points at robID — a newer
// in-flight writer may have already overridden it.
func (rf *RegisterFile) Writeback(r uint8, robID uint32, value uint32) {
	if r == 0 {
		return
	}
	rf.arch[r] = value
	if rf.rename[r] == robID {
		rf.rename[r] = 0
	}
}

// Flush clears the entire rename table. Architectural values are
// untouched.
func (rf *RegisterFile) Flush() {
	rf.rename = [NumRegs]uint32{}
}

// Arch returns the committed value of register r, bypassing renaming. Used
// by the committer to read a0 at halt and by tests.
func (rf *RegisterFile) Arch(r uint8) uint32 {
	return rf.arch[r]
}
