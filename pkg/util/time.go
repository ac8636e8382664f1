package util

import "time"

// WindowStartMS floors a timestamp to the start of its fixed-width window.
func WindowStartMS(t time.Time, widthMS int64) int64 {
	ms := t.UnixMilli()
	return ms - ms%widthMS
}

// WindowsIn returns how many whole windows cover the given span, rounding up.
func WindowsIn(span time.Duration, widthMS int64) int {
	ms := span.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int((ms + widthMS - 1) / widthMS)
}
