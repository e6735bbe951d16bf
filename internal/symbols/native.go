// Package symbols extracts the defined global symbols of native object files
// for archive symbol tables.
package symbols

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"errors"
	"fmt"
)

// Mach-O nlist type bits.
const (
	machoStab = 0xe0
	machoType = 0x0e
	machoExt  = 0x01
	machoUndf = 0x00
)

// Native returns the names of the symbols an object file defines for other
// objects to link against: global and weak definitions, including common
// symbols. ELF and Mach-O objects are understood; any other content, such as
// metadata blobs stored alongside objects, yields no symbols and no error.
func Native(data []byte) ([]string, error) {
	switch {
	case isELF(data):
		return elfSymbols(data)
	case isMachO(data):
		return machoSymbols(data)
	default:
		return nil, nil
	}
}

func isELF(data []byte) bool {
	return bytes.HasPrefix(data, []byte(elf.ELFMAG))
}

func isMachO(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch binary.LittleEndian.Uint32(data) {
	case macho.Magic32, macho.Magic64:
		return true
	}
	switch binary.BigEndian.Uint32(data) {
	case macho.Magic32, macho.Magic64:
		return true
	}
	return false
}

func elfSymbols(data []byte) ([]string, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ELF object: %w", err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ELF symbols: %w", err)
	}

	var names []string
	for _, s := range syms {
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK, elf.STB_LOOS: // STB_LOOS is STB_GNU_UNIQUE
		default:
			continue
		}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_SECTION, elf.STT_FILE:
			continue
		}
		if s.Section == elf.SHN_UNDEF || s.Name == "" {
			continue
		}
		names = append(names, s.Name)
	}
	return names, nil
}

func machoSymbols(data []byte) ([]string, error) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse Mach-O object: %w", err)
	}
	defer f.Close()

	if f.Symtab == nil {
		return nil, nil
	}
	var names []string
	for _, s := range f.Symtab.Syms {
		if s.Type&machoStab != 0 || s.Type&machoExt == 0 {
			continue
		}
		// An undefined symbol with a value is a common definition.
		if s.Type&machoType == machoUndf && s.Value == 0 {
			continue
		}
		if s.Name == "" {
			continue
		}
		names = append(names, s.Name)
	}
	return names, nil
}
