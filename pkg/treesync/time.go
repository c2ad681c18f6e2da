package treesync

import "time"

func unixTime(secs int64) time.Time {
	return time.Unix(secs, 0).UTC()
}
