package storage

import (
	"strconv"
	"sync/atomic"
	"time"
)

var lastKey int64

// nextKey returns a strictly increasing base36 row key so table listings come
// back in creation order.
func nextKey() string {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastKey)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastKey, last, now) {
			return strconv.FormatInt(now, 36)
		}
	}
}
