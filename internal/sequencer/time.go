package sequencer

import "time"

func defaultTimeSource() uint64 {
	return uint64(time.Now().UnixMilli())
}
