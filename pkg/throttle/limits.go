package throttle

// Limits holds the per-window request caps for one platform.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// DefaultLimits is the conservative fallback for platforms without an entry
// in the limit table.
var DefaultLimits = Limits{PerMinute: 5, PerHour: 25, PerDay: 50}

// defaultPlatformLimits returns the built-in per-platform limit table.
// Values track each platform's published API guidance with headroom; the
// stricter platforms get stricter caps.
func defaultPlatformLimits() map[string]Limits {
	return map[string]Limits{
		"facebook":  {PerMinute: 5, PerHour: 25, PerDay: 50},
		"instagram": {PerMinute: 5, PerHour: 25, PerDay: 50},
		"linkedin":  {PerMinute: 5, PerHour: 25, PerDay: 50},
		"twitter":   {PerMinute: 2, PerHour: 10, PerDay: 25},
		"tiktok":    {PerMinute: 2, PerHour: 10, PerDay: 25},
	}
}
