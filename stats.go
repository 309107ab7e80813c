package collections

type Stats struct {
	Size                    int
	Tombstones              int
	Capacity                int
	EffectiveCapacity       int
	LoadFactor              float32
	TombstonesCapacityRatio float32
	TombstonesSizeRatio     float32
}
