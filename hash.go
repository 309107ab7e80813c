package collections

import (
	"encoding/binary"
	"hash"
	"hash/maphash"
	"math"
	"reflect"
)

type HashFunc[K comparable] func(K) uint64

// QuickHasher is the map's internal hasher: a 64-bit accumulator updated as
// acc = acc*31 + b for every byte written. It is fast and reproducible, and
// offers no protection against hash flooding.
type QuickHasher struct {
	value uint64
}

var _ hash.Hash64 = new(QuickHasher)

func (h *QuickHasher) Write(p []byte) (int, error) {
	for _, b := range p {
		h.value = h.value*31 + uint64(b)
	}

	return len(p), nil
}

func (h *QuickHasher) WriteByte(b byte) error {
	h.value = h.value*31 + uint64(b)
	return nil
}

func (h *QuickHasher) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		h.value = h.value*31 + uint64(s[i])
	}

	return len(s), nil
}

// WriteUint64 writes the 8 little-endian bytes of u.
func (h *QuickHasher) WriteUint64(u uint64) {
	h.writeUint(u, 8)
}

func (h *QuickHasher) writeUint(u uint64, width uintptr) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	h.Write(b[:width])
}

func (h *QuickHasher) Sum64() uint64 {
	return h.value
}

func (h *QuickHasher) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, h.value)
}

func (h *QuickHasher) Reset() {
	h.value = 0
}

func (h *QuickHasher) Size() int {
	return 8
}

func (h *QuickHasher) BlockSize() int {
	return 1
}

// Hashable keys feed their own byte representation to the hasher.
// Keys that compare equal must write equal bytes.
type Hashable interface {
	HashTo(h *QuickHasher)
}

// Keys of kinds without a fixed byte representation (structs, arrays,
// pointers, channels, interfaces) are folded through maphash first.
var fallbackSeed = maphash.MakeSeed()

// Returns a HashFunc that runs QuickHasher over the key's bytes.
//
// Strings write their bytes followed by 0xff. Integers write their
// little-endian bytes at their own width, int/uint/uintptr as 8 bytes.
// Floats write their IEEE bits with -0 folded into +0.
func MakeDefaultHashFunc[K comparable]() HashFunc[K] {
	return func(k K) uint64 {
		var h QuickHasher
		writeKey(&h, k)

		return h.Sum64()
	}
}

func writeKey[K comparable](h *QuickHasher, key K) {
	switch k := any(key).(type) {
	case Hashable:
		k.HashTo(h)
	case string:
		writeString(h, k)
	case bool:
		writeBool(h, k)
	case int:
		h.writeUint(uint64(k), 8)
	case int8:
		h.writeUint(uint64(k), 1)
	case int16:
		h.writeUint(uint64(k), 2)
	case int32:
		h.writeUint(uint64(k), 4)
	case int64:
		h.writeUint(uint64(k), 8)
	case uint:
		h.writeUint(uint64(k), 8)
	case uint8:
		h.writeUint(uint64(k), 1)
	case uint16:
		h.writeUint(uint64(k), 2)
	case uint32:
		h.writeUint(uint64(k), 4)
	case uint64:
		h.writeUint(k, 8)
	case uintptr:
		h.writeUint(uint64(k), 8)
	case float32:
		writeFloat(h, float64(k), 4)
	case float64:
		writeFloat(h, k, 8)
	default:
		writeReflect(h, key)
	}
}

// writeReflect covers named types over basic kinds (type ID string, ...),
// which the type switch above doesn't match.
func writeReflect[K comparable](h *QuickHasher, key K) {
	rv := reflect.ValueOf(key)
	if !rv.IsValid() {
		h.WriteUint64(maphash.Comparable(fallbackSeed, key))
		return
	}

	switch rv.Kind() {
	case reflect.String:
		writeString(h, rv.String())
	case reflect.Bool:
		writeBool(h, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.writeUint(uint64(rv.Int()), rv.Type().Size())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.writeUint(rv.Uint(), rv.Type().Size())
	case reflect.Float32:
		writeFloat(h, rv.Float(), 4)
	case reflect.Float64:
		writeFloat(h, rv.Float(), 8)
	case reflect.Complex64:
		c := rv.Complex()
		writeFloat(h, real(c), 4)
		writeFloat(h, imag(c), 4)
	case reflect.Complex128:
		c := rv.Complex()
		writeFloat(h, real(c), 8)
		writeFloat(h, imag(c), 8)
	default:
		h.WriteUint64(maphash.Comparable(fallbackSeed, key))
	}
}

func writeString(h *QuickHasher, s string) {
	h.WriteString(s)
	h.WriteByte(0xff)
}

func writeBool(h *QuickHasher, b bool) {
	if b {
		h.WriteByte(1)
	} else {
		h.WriteByte(0)
	}
}

func writeFloat(h *QuickHasher, f float64, width uintptr) {
	if f == 0 {
		f = 0
	}

	if width == 4 {
		h.writeUint(uint64(math.Float32bits(float32(f))), 4)
		return
	}

	h.writeUint(math.Float64bits(f), 8)
}
