package histogram

import "time"

// Checkpoint is a fixed-layout copy of Summary suitable for appending to a
// local checkpoint file: every field is a plain integer or bool, so
// SizeInByte/Encode/Decode below are generated as a raw memory copy rather
// than a field-by-field marshal. The encoded bytes follow this build's
// in-memory layout, so only a build with the same layout can decode them.
//
//go:generate gencodable -file checkpoint.go
type Checkpoint struct {
	Count    uint64
	Min      int64
	Mean     int64
	P50      int64
	P90      int64
	P99      int64
	P999     int64
	Max      int64
	P99Pass  bool
	P999Pass bool
}

// Checkpoint converts a Summary into its fixed-layout form.
func (s Summary) Checkpoint() Checkpoint {
	return Checkpoint{
		Count:    s.Count,
		Min:      int64(s.Min),
		Mean:     int64(s.Mean),
		P50:      int64(s.P50),
		P90:      int64(s.P90),
		P99:      int64(s.P99),
		P999:     int64(s.P999),
		Max:      int64(s.Max),
		P99Pass:  s.P99Pass,
		P999Pass: s.P999Pass,
	}
}

// Summary expands a Checkpoint back into a Summary for display.
func (c Checkpoint) Summary() Summary {
	return Summary{
		Count:    c.Count,
		Min:      time.Duration(c.Min),
		Mean:     time.Duration(c.Mean),
		P50:      time.Duration(c.P50),
		P90:      time.Duration(c.P90),
		P99:      time.Duration(c.P99),
		P999:     time.Duration(c.P999),
		Max:      time.Duration(c.Max),
		P99Pass:  c.P99Pass,
		P999Pass: c.P999Pass,
	}
}
