package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over a fixed number of stripes. Each stripe
// is placed on the ring replicationFactor times.
type ring struct {
	hashRing *treemap.Map

	// Cached since treemap.Map.Min() is O(log n).
	minStripe int
}

func newRing(prefix string, stripes int, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < stripes; stripe++ {
		keyHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("%s%d", prefix, stripe)))

		var seed [12]byte
		binary.LittleEndian.PutUint64(seed[:8], keyHash)
		for i := 0; i < int(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(seed[8:], uint32(i))
			hash, _ := murmur3.Sum128(seed[:])
			hashRing.Put(int64(hash), stripe)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, min := hashRing.Min(); min != nil {
		r.minStripe = min.(int)
	}
	return r
}

// shard returns the stripe that owns key.
func (r *ring) shard(key []byte) int {
	raw, _ := murmur3.Sum128(key)
	if _, stripe := r.hashRing.Ceiling(int64(raw)); stripe != nil {
		return stripe.(int)
	}
	return r.minStripe
}
