package sample

import "time"

// Time64 is a time value made of two 32-bit words, matching format.TypeTime64.
type Time64 struct {
	Sec  uint32
	Nsec uint32
}

// Time128 is a time value made of two 64-bit words, matching format.TypeTime128.
type Time128 struct {
	Sec  uint64
	Nsec uint64
}

// processStart anchors the monotonic clock used by Now64 and Now128.
var processStart = time.Now()

// Now64 returns the monotonic time since process start as a Time64.
func Now64() Time64 {
	return Time64FromDuration(time.Since(processStart))
}

// Now128 returns the monotonic time since process start as a Time128.
func Now128() Time128 {
	return Time128FromDuration(time.Since(processStart))
}

// Time64FromDuration splits d into whole seconds and nanoseconds.
// Negative durations clamp to zero; seconds wrap past 2^32.
func Time64FromDuration(d time.Duration) Time64 {
	if d < 0 {
		return Time64{}
	}

	return Time64{Sec: uint32(d / time.Second), Nsec: uint32(d % time.Second)}
}

// Time128FromDuration splits d into whole seconds and nanoseconds.
// Negative durations clamp to zero.
func Time128FromDuration(d time.Duration) Time128 {
	if d < 0 {
		return Time128{}
	}

	return Time128{Sec: uint64(d / time.Second), Nsec: uint64(d % time.Second)}
}

// Duration converts t back into a time.Duration.
func (t Time64) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// Duration converts t back into a time.Duration.
func (t Time128) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// Seconds returns t as fractional seconds.
func (t Time64) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nsec)/1e9
}

// Seconds returns t as fractional seconds.
func (t Time128) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nsec)/1e9
}
