package collections

import (
	"iter"

	"github.com/cockroachdb/errors"

	"github.com/homier/collections/alloc"
)

const (
	// Slot states live in the hash word. Any other value is an occupied
	// slot's hash, so real hashes are remapped above slotTombstone.
	slotEmpty     uint64 = 0
	slotTombstone uint64 = 1

	defaultMapCapacity = 8
)

// HashMap is an open-addressing hash map with linear probing and lazy
// (tombstone) deletion. Hashes, keys and values live in three parallel
// buffers; a slot's key and value are live iff its hash is above
// slotTombstone.
//
// The table grows by doubling once live entries plus tombstones reach 3/4
// of the capacity. It never shrinks. The zero value is an empty map that
// allocates on first insert. Not safe for concurrent use.
type HashMap[K comparable, V any] struct {
	hashes Vec[uint64]
	keys   Vec[K]
	values Vec[V]

	mask       int
	elements   int
	tombstones int

	hashFunc HashFunc[K]
}

type Option[K comparable, V any] func(m *HashMap[K, V])

// Override default hash function.
func WithHashFunc[K comparable, V any](f HashFunc[K]) Option[K, V] {
	return func(m *HashMap[K, V]) {
		m.hashFunc = f
	}
}

// Override the allocators of the hash, key and value buffers.
// A nil allocator keeps the Go heap.
func WithAllocators[K comparable, V any](
	hashes alloc.Allocator[uint64],
	keys alloc.Allocator[K],
	values alloc.Allocator[V],
) Option[K, V] {
	return func(m *HashMap[K, V]) {
		m.hashes.alloc = hashes
		m.keys.alloc = keys
		m.values.alloc = values
	}
}

// Returns a new hash map with room for `capacity` slots, rounded up to a
// power of two and to at least 8.
func NewHashMap[K comparable, V any](capacity int, opts ...Option[K, V]) *HashMap[K, V] {
	var m HashMap[K, V]
	for _, opt := range opts {
		opt(&m)
	}

	m.init(capacity)

	return &m
}

// init replaces the buffers with empty ones of `capacity` slots without
// freeing the current ones. If an allocation fails, the buffers obtained so
// far are given back and m is left untouched.
func (m *HashMap[K, V]) init(capacity int) {
	capacity = NextPowerOf2(max(capacity, defaultMapCapacity))

	done := false

	hashes := newSlots(capacity, m.hashes.alloc)
	defer func() {
		if !done {
			hashes.free()
		}
	}()

	keys := newSlots(capacity, m.keys.alloc)
	defer func() {
		if !done {
			keys.free()
		}
	}()

	values := newSlots(capacity, m.values.alloc)
	done = true

	m.hashes, m.keys, m.values = hashes, keys, values
	m.mask = capacity - 1
	m.elements = 0
	m.tombstones = 0
}

// Len is the number of live entries.
func (m *HashMap[K, V]) Len() int {
	return m.elements
}

// Cap is the number of slots.
func (m *HashMap[K, V]) Cap() int {
	return m.hashes.Len()
}

// Returns true if the map holds no live entries.
func (m *HashMap[K, V]) IsEmpty() bool {
	return m.elements == 0
}

// Returns true if key is present.
func (m *HashMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.lookup(key)
	return ok
}

// Returns the value stored under key, or false if it's absent.
func (m *HashMap[K, V]) Get(key K) (V, bool) {
	i, ok := m.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}

	return m.values.buf[i], true
}

// GetMut returns a pointer to the value stored under key, or nil. The
// pointer is invalidated by any insert or reserve.
func (m *HashMap[K, V]) GetMut(key K) *V {
	i, ok := m.lookup(key)
	if !ok {
		return nil
	}

	return &m.values.buf[i]
}

// Insert stores value under key. If the key is already present its value
// is replaced and handed back; the stored key is kept and the passed key
// is dropped.
func (m *HashMap[K, V]) Insert(key K, value V) (V, bool) {
	if m.elements+m.tombstones >= m.Cap()*3/4 {
		m.resize()
	}

	hash := m.hashKey(key)
	i := m.mustFindSlot(hash, key)

	hashes := m.hashes.buf
	if hashes[i] > slotTombstone {
		prev := m.values.buf[i]
		m.values.buf[i] = value

		return prev, true
	}

	if hashes[i] == slotTombstone {
		m.tombstones--
	}

	m.elements++
	hashes[i] = hash
	m.keys.buf[i] = key
	m.values.buf[i] = value

	var zero V
	return zero, false
}

// Remove deletes key, releasing the stored key and handing the value back.
// The slot becomes a tombstone until the next rebuild.
func (m *HashMap[K, V]) Remove(key K) (V, bool) {
	var zero V

	i, ok := m.lookup(key)
	if !ok {
		return zero, false
	}

	m.elements--
	m.tombstones++
	m.hashes.buf[i] = slotTombstone

	release(&m.keys.buf[i])
	value := m.values.buf[i]
	m.values.buf[i] = zero

	return value, true
}

// Clear releases every entry and marks all slots empty, keeping the
// allocation.
func (m *HashMap[K, V]) Clear() {
	if m.elements == 0 && m.tombstones == 0 {
		return
	}

	m.releaseEntries()
	clear(m.hashes.buf)

	m.elements = 0
	m.tombstones = 0
}

// Reserve makes sure Len()+additional entries fit in the slots. If they
// don't, the table is rebuilt at the next power of two, dropping tombstones.
func (m *HashMap[K, V]) Reserve(additional int) {
	if additional < 0 {
		panic(errors.Wrapf(ErrCapacityOverflow, "negative reserve %d", additional))
	}

	needed := checkedAdd(m.elements, additional)
	if needed > m.Cap() {
		m.rebuild(NextPowerOf2(needed))
	}
}

// All iterates over live entries in table order.
func (m *HashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, h := range m.hashes.Slice() {
			if h > slotTombstone {
				if !yield(m.keys.buf[i], m.values.buf[i]) {
					return
				}
			}
		}
	}
}

// AllMut iterates over live entries with a pointer to each value.
func (m *HashMap[K, V]) AllMut() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for i, h := range m.hashes.Slice() {
			if h > slotTombstone {
				if !yield(m.keys.buf[i], &m.values.buf[i]) {
					return
				}
			}
		}
	}
}

// Keys iterates over live keys in table order.
func (m *HashMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values iterates over live values in table order.
func (m *HashMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Returns a snapshot of the table's occupancy.
func (m *HashMap[K, V]) Stats() Stats {
	s := Stats{
		Size:              m.elements,
		Tombstones:        m.tombstones,
		Capacity:          m.Cap(),
		EffectiveCapacity: m.Cap() * 3 / 4,
	}

	if s.Capacity > 0 {
		s.TombstonesCapacityRatio = float32(s.Tombstones) / float32(s.Capacity)
		s.LoadFactor = float32(s.Size+s.Tombstones) / float32(s.Capacity)
	}
	if s.Size > 0 {
		s.TombstonesSizeRatio = float32(s.Tombstones) / float32(s.Size)
	}

	return s
}

// Release releases every entry and deallocates the three buffers. The map
// is left with no capacity and may be reused.
func (m *HashMap[K, V]) Release() {
	if m == nil {
		return
	}

	m.releaseEntries()
	m.free()
}

func (m *HashMap[K, V]) releaseEntries() {
	for i, h := range m.hashes.Slice() {
		if h > slotTombstone {
			release(&m.keys.buf[i])
			release(&m.values.buf[i])
		}
	}
}

// free deallocates the buffers without releasing entries.
func (m *HashMap[K, V]) free() {
	m.hashes.free()
	m.keys.free()
	m.values.free()

	m.mask = 0
	m.elements = 0
	m.tombstones = 0
}

func (m *HashMap[K, V]) hasher() HashFunc[K] {
	if m.hashFunc == nil {
		m.hashFunc = MakeDefaultHashFunc[K]()
	}

	return m.hashFunc
}

// hashKey never returns a slot state.
func (m *HashMap[K, V]) hashKey(key K) uint64 {
	h := m.hasher()(key)
	if h <= slotTombstone {
		h += 2
	}

	return h
}

// lookup returns the slot holding key.
func (m *HashMap[K, V]) lookup(key K) (int, bool) {
	if m.elements == 0 {
		return 0, false
	}

	i, ok := m.findSlot(m.hashKey(key), key)
	if !ok || m.hashes.buf[i] <= slotTombstone {
		return 0, false
	}

	return i, true
}

// findSlot probes linearly from hash&mask. It returns the slot holding key,
// or where key would be inserted: the first tombstone on the probe path if
// any, otherwise the first empty slot. It reports false only if every slot
// was visited without a match, an empty slot, or a tombstone.
func (m *HashMap[K, V]) findSlot(hash uint64, key K) (int, bool) {
	hashes := m.hashes.buf
	if len(hashes) == 0 {
		return 0, false
	}

	var (
		i              = int(hash & uint64(m.mask))
		firstTombstone = -1
	)

	for range len(hashes) {
		switch h := hashes[i]; {
		case h == slotEmpty:
			if firstTombstone >= 0 {
				return firstTombstone, true
			}

			return i, true
		case h == slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = i
			}
		case h == hash && m.keys.buf[i] == key:
			return i, true
		}

		i = (i + 1) & m.mask
	}

	if firstTombstone >= 0 {
		return firstTombstone, true
	}

	return 0, false
}

func (m *HashMap[K, V]) mustFindSlot(hash uint64, key K) int {
	i, ok := m.findSlot(hash, key)
	if !ok {
		panic(errors.WithAssertionFailure(errors.Wrapf(ErrTableCorrupt,
			"%d slots, %d elements, %d tombstones", m.Cap(), m.elements, m.tombstones)))
	}

	return i
}

// resize doubles the table, or creates the default one.
func (m *HashMap[K, V]) resize() {
	capacity := defaultMapCapacity
	if m.Cap() > 0 {
		capacity = checkedDouble(m.Cap())
	}

	m.rebuild(capacity)
}

// rebuild moves every live entry into a fresh table of `capacity` slots.
// Tombstones are dropped. The old buffers are freed only once the new ones
// are all allocated.
func (m *HashMap[K, V]) rebuild(capacity int) {
	old := HashMap[K, V]{
		hashes: m.hashes,
		keys:   m.keys,
		values: m.values,
	}

	m.init(capacity)

	for i, h := range old.hashes.Slice() {
		if h > slotTombstone {
			m.insertUnchecked(h, old.keys.buf[i], old.values.buf[i])
		}
	}

	old.free()
}

// insertUnchecked places an entry whose hash is already computed and
// remapped. Only used while rebuilding into a table with enough room.
func (m *HashMap[K, V]) insertUnchecked(hash uint64, key K, value V) {
	i := m.mustFindSlot(hash, key)

	hashes := m.hashes.buf
	if hashes[i] <= slotTombstone {
		m.elements++

		if hashes[i] == slotTombstone {
			m.tombstones--
		}
	}

	hashes[i] = hash
	m.keys.buf[i] = key
	m.values.buf[i] = value
}
