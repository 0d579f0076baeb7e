// Package platform detects the capabilities of the runtime environment a
// motion surface is running in and freezes them into an immutable
// CapabilityProfile. Detection happens once; every downstream decision
// (whether to animate, which loader path to take, which easing to pick)
// reads the cached profile.
package platform

// BrowserFamily is the coarse browser identity used for capability
// decisions. Unknown engines map to BrowserUnknown with every optional
// capability probed rather than assumed.
type BrowserFamily string

const (
	BrowserChrome  BrowserFamily = "chrome"
	BrowserFirefox BrowserFamily = "firefox"
	BrowserSafari  BrowserFamily = "safari"
	BrowserEdge    BrowserFamily = "edge"
	BrowserOpera   BrowserFamily = "opera"
	BrowserUnknown BrowserFamily = "unknown"
)

// CapabilityProfile is the immutable result of one environment probe
// pass. Recomputing a profile requires a fresh Detect call; nothing
// mutates an existing profile.
type CapabilityProfile struct {
	Browser        BrowserFamily `json:"browser"`
	BrowserVersion int           `json:"browser_version"`
	Mobile         bool          `json:"mobile"`
	IOS            bool          `json:"ios"`
	Android        bool          `json:"android"`

	ModernCSS            bool `json:"modern_css"`
	WebGL                bool `json:"webgl"`
	IntersectionObserver bool `json:"intersection_observer"`
	ResizeObserver       bool `json:"resize_observer"`

	HardwareConcurrency int     `json:"hardware_concurrency"`
	DeviceMemoryGB      float64 `json:"device_memory_gb"`

	// LowEndDevice is derived: little concurrency or little memory.
	// Consumers use it to pre-emptively downgrade animation complexity.
	LowEndDevice bool `json:"low_end_device"`
}

// Probes carries host-supplied capability checks. Each func may be nil
// (capability reported false) and may panic (capability reported false;
// Detect never propagates a probe failure).
type Probes struct {
	WebGL                func() bool
	IntersectionObserver func() bool
	ResizeObserver       func() bool
	ModernCSS            func() bool
}

// Environment is everything the host view layer knows about where it is
// running. Zero values are acceptable; Detect degrades gracefully.
type Environment struct {
	UserAgent           string
	HardwareConcurrency int
	DeviceMemoryGB      float64
	Probes              Probes
}
