package pack

import "github.com/nivl-labs/packengine/internal/packwire"

// EncodeDelta produces a delta payload that ApplyDelta(base, ·) turns
// back into target. It exists to exercise the "Delta identity"
// property of spec §8 against externally produced deltas — the
// engine's own builder never emits delta entries (spec §4.5), so this
// encoder has no call site inside Builder itself.
//
// Matching is grounded on remyoudompheng/gigot's gitdelta.Diff: hash
// fixed-size chunks of base, scan target for matches, extend them,
// and fall back to literal inserts between matches. The opcode bytes
// emitted here follow spec §4.4's copy/insert format (the same one
// ApplyDelta parses), not gigot's own patch encoding.
func EncodeDelta(base, target []byte) []byte {
	out := packwire.AppendVarLenSize(nil, uint64(len(base)))
	out = packwire.AppendVarLenSize(out, uint64(len(target)))

	const blockSize = 16
	index := indexChunks(base, blockSize)

	literalStart := 0
	i := 0
	for i+blockSize <= len(target) {
		start, ok := index[string(target[i:i+blockSize])]
		if !ok {
			i++
			continue
		}

		// Extend the match left into the pending literal run, and
		// right to the end of either buffer.
		matchBase, matchTarget := start, i
		for matchBase > 0 && matchTarget > literalStart && base[matchBase-1] == target[matchTarget-1] {
			matchBase--
			matchTarget--
		}
		end := i + blockSize
		for matchBase+(end-matchTarget) < len(base) && end < len(target) && base[matchBase+(end-matchTarget)] == target[end] {
			end++
		}
		length := end - matchTarget

		out = appendInsert(out, target[literalStart:matchTarget])
		out = appendCopy(out, uint32(matchBase), uint32(length))

		literalStart = end
		i = end
	}
	out = appendInsert(out, target[literalStart:])
	return out
}

// indexChunks maps each blockSize-byte chunk of data to its first
// occurrence's offset.
func indexChunks(data []byte, blockSize int) map[string]int {
	if len(data) < blockSize {
		return map[string]int{}
	}
	idx := make(map[string]int, len(data)/blockSize)
	for i := 0; i+blockSize <= len(data); i++ {
		key := string(data[i : i+blockSize])
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// appendInsert emits data as one or more insert opcodes (each opcode
// carries at most 127 literal bytes).
func appendInsert(out []byte, data []byte) []byte {
	for len(data) > 0 {
		n := len(data)
		if n > 127 {
			n = 127
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return out
}

// appendCopy emits one or more copy opcodes covering base[offset:offset+length].
// A single opcode can only address up to 65536 bytes, so longer
// matches are split.
func appendCopy(out []byte, offset, length uint32) []byte {
	for length > 0 {
		chunk := length
		if chunk > 0x10000 {
			chunk = 0x10000
		}

		op := byte(0x80)
		var tail []byte
		for i := 0; i < 4; i++ {
			b := byte(offset >> (8 * uint(i)))
			if b != 0 {
				op |= 1 << uint(i)
				tail = append(tail, b)
			}
		}
		// chunk == 0x10000 is represented by omitting both length
		// bytes (the decoder reinterprets a decoded length of 0 as
		// 65536).
		if chunk != 0x10000 {
			for i := 0; i < 2; i++ {
				b := byte(chunk >> (8 * uint(i)))
				if b != 0 {
					op |= 1 << uint(4+i)
					tail = append(tail, b)
				}
			}
		}

		out = append(out, op)
		out = append(out, tail...)

		offset += chunk
		length -= chunk
	}
	return out
}
