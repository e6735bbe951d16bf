package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// ObjectSymbols lists the symbols a fixture object file should carry.
type ObjectSymbols struct {
	Defined   []string
	Weak      []string
	Undefined []string
	Local     []string
}

// ELFObject builds a minimal little-endian x86-64 relocatable ELF file with a
// .text section and a symbol table. A STT_FILE and a STT_SECTION symbol are
// always present alongside the requested symbols.
func ELFObject(syms ObjectSymbols) []byte {
	var strtab bytes.Buffer
	strtab.WriteByte(0)
	addStr := func(s string) uint32 {
		if s == "" {
			return 0
		}
		off := uint32(strtab.Len())
		strtab.WriteString(s)
		strtab.WriteByte(0)
		return off
	}

	symbols := []elf.Sym64{
		{},
		{Name: addStr("fixture.c"), Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE), Shndx: uint16(elf.SHN_ABS)},
		{Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_SECTION), Shndx: 1},
	}
	for _, name := range syms.Local {
		symbols = append(symbols, elf.Sym64{Name: addStr(name), Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FUNC), Shndx: 1})
	}
	firstGlobal := uint32(len(symbols))
	for _, name := range syms.Defined {
		symbols = append(symbols, elf.Sym64{Name: addStr(name), Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 1})
	}
	for _, name := range syms.Weak {
		symbols = append(symbols, elf.Sym64{Name: addStr(name), Info: elf.ST_INFO(elf.STB_WEAK, elf.STT_FUNC), Shndx: 1})
	}
	for _, name := range syms.Undefined {
		symbols = append(symbols, elf.Sym64{Name: addStr(name), Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_NOTYPE), Shndx: uint16(elf.SHN_UNDEF)})
	}

	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	const (
		textName     = 1
		symtabName   = 7
		strtabName   = 15
		shstrtabName = 23
	)

	text := bytes.Repeat([]byte{0xc3}, 16)
	const ehdrSize = 64
	textOff := uint64(ehdrSize)
	symOff := textOff + uint64(len(text))
	symSize := uint64(len(symbols)) * elf.Sym64Size
	strOff := symOff + symSize
	shstrOff := strOff + uint64(strtab.Len())
	shOff := shstrOff + uint64(len(shstrtab))
	shOff += (8 - shOff%8) % 8

	sections := []elf.Section64{
		{},
		{Name: textName, Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR), Off: textOff, Size: uint64(len(text)), Addralign: 16},
		{Name: symtabName, Type: uint32(elf.SHT_SYMTAB), Off: symOff, Size: symSize, Link: 3, Info: firstGlobal, Addralign: 8, Entsize: elf.Sym64Size},
		{Name: strtabName, Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint64(strtab.Len()), Addralign: 1},
		{Name: shstrtabName, Type: uint32(elf.SHT_STRTAB), Off: shstrOff, Size: uint64(len(shstrtab)), Addralign: 1},
	}

	hdr := elf.Header64{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shOff,
		Ehsize:    ehdrSize,
		Shentsize: 64,
		Shnum:     uint16(len(sections)),
		Shstrndx:  4,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var buf bytes.Buffer
	mustWrite(&buf, hdr)
	buf.Write(text)
	for _, s := range symbols {
		mustWrite(&buf, s)
	}
	buf.Write(strtab.Bytes())
	buf.Write(shstrtab)
	for uint64(buf.Len()) < shOff {
		buf.WriteByte(0)
	}
	for _, s := range sections {
		mustWrite(&buf, s)
	}
	return buf.Bytes()
}

// Mach-O constants used by MachOObject.
const (
	machoMagic64  = 0xfeedfacf
	machoCPUAMD64 = 0x01000007
	machoObject   = 0x1
	lcSymtab      = 0x2
	nExt          = 0x01
	nSect         = 0x0e
	nSO           = 0x64
	nWeakDef      = 0x0080
)

// MachOObject builds a minimal 64-bit Mach-O object with an LC_SYMTAB load
// command. A debugger (stab) symbol is always present alongside the requested
// symbols.
func MachOObject(syms ObjectSymbols) []byte {
	var strtab bytes.Buffer
	strtab.WriteByte(0)
	type nlist struct {
		strx  uint32
		typ   uint8
		sect  uint8
		desc  uint16
		value uint64
	}
	var nlists []nlist
	add := func(name string, typ, sect uint8, desc uint16) {
		nlists = append(nlists, nlist{strx: uint32(strtab.Len()), typ: typ, sect: sect, desc: desc})
		strtab.WriteString(name)
		strtab.WriteByte(0)
	}
	add("fixture.c", nSO, 0, 0)
	for _, name := range syms.Local {
		add(name, nSect, 1, 0)
	}
	for _, name := range syms.Defined {
		add(name, nSect|nExt, 1, 0)
	}
	for _, name := range syms.Weak {
		add(name, nSect|nExt, 1, nWeakDef)
	}
	for _, name := range syms.Undefined {
		add(name, nExt, 0, 0)
	}
	for strtab.Len()%8 != 0 {
		strtab.WriteByte(0)
	}

	const headerSize = 32
	const symtabCmdSize = 24
	symOff := uint32(headerSize + symtabCmdSize)
	strOff := symOff + uint32(len(nlists))*16

	le := binary.LittleEndian
	buf := make([]byte, 0, int(strOff)+strtab.Len())
	buf = le.AppendUint32(buf, machoMagic64)
	buf = le.AppendUint32(buf, machoCPUAMD64)
	buf = le.AppendUint32(buf, 3)
	buf = le.AppendUint32(buf, machoObject)
	buf = le.AppendUint32(buf, 1)
	buf = le.AppendUint32(buf, symtabCmdSize)
	buf = le.AppendUint32(buf, 0)
	buf = le.AppendUint32(buf, 0)

	buf = le.AppendUint32(buf, lcSymtab)
	buf = le.AppendUint32(buf, symtabCmdSize)
	buf = le.AppendUint32(buf, symOff)
	buf = le.AppendUint32(buf, uint32(len(nlists)))
	buf = le.AppendUint32(buf, strOff)
	buf = le.AppendUint32(buf, uint32(strtab.Len()))

	for _, n := range nlists {
		buf = le.AppendUint32(buf, n.strx)
		buf = append(buf, n.typ, n.sect)
		buf = le.AppendUint16(buf, n.desc)
		buf = le.AppendUint64(buf, n.value)
	}
	return append(buf, strtab.Bytes()...)
}

func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
