package archive

import (
	"encoding/binary"
)

// symbolCounts returns the total number of symbols and the size of their
// NUL-terminated string table.
func symbolCounts(symbols [][]string) (count, strSize int64) {
	for _, names := range symbols {
		for _, name := range names {
			count++
			strSize += int64(len(name)) + 1
		}
	}
	return count, strSize
}

// putWord appends v using the given word size and byte order.
func putWord(buf []byte, order binary.AppendByteOrder, wordSize int64, v uint64) []byte {
	if wordSize == 8 {
		return order.AppendUint64(buf, v)
	}
	return order.AppendUint32(buf, uint32(v))
}

// gnuSymbolTable encodes the GNU "/" (or "/SYM64/") payload: a big-endian
// symbol count, one member header offset per symbol, then the symbol names.
// The result is NUL-padded to size.
func gnuSymbolTable(symbols [][]string, layouts []memberLayout, wordSize, size int64) []byte {
	count, _ := symbolCounts(symbols)
	buf := make([]byte, 0, size)
	buf = putWord(buf, binary.BigEndian, wordSize, uint64(count))
	for i, names := range symbols {
		for range names {
			buf = putWord(buf, binary.BigEndian, wordSize, uint64(layouts[i].offset))
		}
	}
	for _, names := range symbols {
		for _, name := range names {
			buf = append(buf, name...)
			buf = append(buf, 0)
		}
	}
	for int64(len(buf)) < size {
		buf = append(buf, 0)
	}
	return buf
}

// bsdSymbolTable encodes the Darwin "__.SYMDEF" (or "__.SYMDEF_64") payload:
// the byte length of the ranlib array, {string offset, member offset} pairs,
// the string table length, and the string table NUL-padded to strSize.
func bsdSymbolTable(symbols [][]string, layouts []memberLayout, wordSize, strSize int64) []byte {
	count, _ := symbolCounts(symbols)
	buf := make([]byte, 0, wordSize*(2+2*count)+strSize)
	buf = putWord(buf, binary.LittleEndian, wordSize, uint64(2*wordSize*count))
	var strx int64
	for i, names := range symbols {
		for _, name := range names {
			buf = putWord(buf, binary.LittleEndian, wordSize, uint64(strx))
			buf = putWord(buf, binary.LittleEndian, wordSize, uint64(layouts[i].offset))
			strx += int64(len(name)) + 1
		}
	}
	buf = putWord(buf, binary.LittleEndian, wordSize, uint64(strSize))
	for _, names := range symbols {
		for _, name := range names {
			buf = append(buf, name...)
			buf = append(buf, 0)
		}
	}
	for pad := strSize - strx; pad > 0; pad-- {
		buf = append(buf, 0)
	}
	return buf
}
