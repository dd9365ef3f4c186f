package playback

import (
	"sort"

	"github.com/pkg/errors"
)

// trackIndex maps a track's monotonic block positions to timestamps.
// Immutable once the recording is opened.
type trackIndex struct {
	timestampsNS []uint64
}

func newTrackIndex(timestampsNS []uint64) (*trackIndex, error) {
	for i := 1; i < len(timestampsNS); i++ {
		if timestampsNS[i] < timestampsNS[i-1] {
			return nil, errors.Errorf(
				"track timestamps are not monotonic: block %d at %d ns precedes block %d at %d ns",
				i, timestampsNS[i], i-1, timestampsNS[i-1])
		}
	}
	return &trackIndex{timestampsNS: timestampsNS}, nil
}

func (ti *trackIndex) frameCount() int {
	return len(ti.timestampsNS)
}

// timestampUsecByIndex returns the block's timestamp in microseconds, or -1
// if the index is out of range.
func (ti *trackIndex) timestampUsecByIndex(i int) int64 {
	if i < 0 || i >= len(ti.timestampsNS) {
		return -1
	}
	return int64(ti.timestampsNS[i] / 1000)
}

// search returns the first block position whose timestamp is >= targetNS,
// or frameCount() if no such block exists.
func (ti *trackIndex) search(targetNS uint64) int {
	return sort.Search(len(ti.timestampsNS), func(i int) bool {
		return ti.timestampsNS[i] >= targetNS
	})
}

// lastTimestampNS returns the timestamp of the final block, or 0 for an
// empty track.
func (ti *trackIndex) lastTimestampNS() uint64 {
	if len(ti.timestampsNS) == 0 {
		return 0
	}
	return ti.timestampsNS[len(ti.timestampsNS)-1]
}
