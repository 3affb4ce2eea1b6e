package insts

// Decode maps a 32-bit instruction word to a decoded Instruction. pc is the
// address the word was fetched from. Unrecognized encodings decode to
// INVALID.
func Decode(word uint32, pc uint32) Instruction {
	inst := Instruction{PC: pc}

	opcode := word & 0x7F
	rd := uint8((word >> 7) & 0x1F)
	funct3 := (word >> 12) & 0x7
	rs1 := uint8((word >> 15) & 0x1F)
	rs2 := uint8((word >> 20) & 0x1F)
	funct7 := (word >> 25) & 0x7F

	switch opcode {
	case 0b0110111: // LUI
		inst.Op = LUI
		inst.Rd = rd
		inst.Imm = word & 0xFFFFF000

	case 0b0010111: // AUIPC
		inst.Op = AUIPC
		inst.Rd = rd
		inst.Imm = word & 0xFFFFF000

	case 0b1101111: // JAL
		inst.Op = JAL
		inst.Rd = rd
		inst.Imm = decodeJImm(word)
		inst.IsBranch = true

	case 0b1100111: // JALR
		inst.Op = JALR
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Imm = signExtend(word>>20, 12)
		inst.IsBranch = true

	case 0b1100011: // BEQ/BNE/BLT/BGE/BLTU/BGEU
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeBImm(word)
		inst.IsBranch = true
		switch funct3 {
		case 0b000:
			inst.Op = BEQ
		case 0b001:
			inst.Op = BNE
		case 0b100:
			inst.Op = BLT
		case 0b101:
			inst.Op = BGE
		case 0b110:
			inst.Op = BLTU
		case 0b111:
			inst.Op = BGEU
		default:
			inst.Op = INVALID
		}

	case 0b0000011: // LB/LH/LW/LBU/LHU
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Imm = signExtend(word>>20, 12)
		switch funct3 {
		case 0b000:
			inst.Op = LB
		case 0b001:
			inst.Op = LH
		case 0b010:
			inst.Op = LW
		case 0b100:
			inst.Op = LBU
		case 0b101:
			inst.Op = LHU
		default:
			inst.Op = INVALID
		}

	case 0b0100011: // SB/SH/SW
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeSImm(word)
		switch funct3 {
		case 0b000:
			inst.Op = SB
		case 0b001:
			inst.Op = SH
		case 0b010:
			inst.Op = SW
		default:
			inst.Op = INVALID
		}

	case 0b0010011: // ADDI/SLTI/SLTIU/XORI/ORI/ANDI/SLLI/SRLI/SRAI
		inst.Rd = rd
		inst.Rs1 = rs1
		switch funct3 {
		case 0b000:
			inst.Op = ADDI
		case 0b010:
			inst.Op = SLTI
		case 0b011:
			inst.Op = SLTIU
		case 0b100:
			inst.Op = XORI
		case 0b110:
			inst.Op = ORI
		case 0b111:
			inst.Op = ANDI
		case 0b001:
			inst.Op = SLLI
		case 0b101:
			if funct7 == 0b0100000 {
				inst.Op = SRAI
			} else {
				inst.Op = SRLI
			}
		default:
			inst.Op = INVALID
		}
		if funct3 == 0b001 || funct3 == 0b101 {
			inst.Imm = uint32(rs2) // shamt lives in the rs2 field for I-type shifts
		} else {
			inst.Imm = signExtend(word>>20, 12)
		}

	case 0b0110011: // ADD/SUB/SLL/SLT/SLTU/XOR/SRL/SRA/OR/AND
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		switch funct3 {
		case 0b000:
			if funct7 == 0b0100000 {
				inst.Op = SUB
			} else {
				inst.Op = ADD
			}
		case 0b001:
			inst.Op = SLL
		case 0b010:
			inst.Op = SLT
		case 0b011:
			inst.Op = SLTU
		case 0b100:
			inst.Op = XOR
		case 0b101:
			if funct7 == 0b0100000 {
				inst.Op = SRA
			} else {
				inst.Op = SRL
			}
		case 0b110:
			inst.Op = OR
		case 0b111:
			inst.Op = AND
		default:
			inst.Op = INVALID
		}

	default:
		inst.Op = INVALID
	}

	return inst
}

// signExtend sign-extends the low bits-width bits of v.
func signExtend(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

func decodeJImm(word uint32) uint32 {
	imm20 := (word >> 31) & 1
	imm10_1 := (word >> 21) & 0x3FF
	imm11 := (word >> 20) & 1
	imm19_12 := (word >> 12) & 0xFF
	v := (imm20 << 20) | (imm19_12 << 12) | (imm11 << 11) | (imm10_1 << 1)
	return signExtend(v, 21)
}

func decodeBImm(word uint32) uint32 {
	imm12 := (word >> 31) & 1
	imm10_5 := (word >> 25) & 0x3F
	imm4_1 := (word >> 8) & 0xF
	imm11 := (word >> 7) & 1
	v := (imm12 << 12) | (imm11 << 11) | (imm10_5 << 5) | (imm4_1 << 1)
	return signExtend(v, 13)
}

func decodeSImm(word uint32) uint32 {
	imm11_5 := (word >> 25) & 0x7F
	imm4_0 := (word >> 7) & 0x1F
	v := (imm11_5 << 5) | imm4_0
	return signExtend(v, 12)
}
