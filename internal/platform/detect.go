package platform

import (
	"runtime"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

const (
	lowEndConcurrency = 2
	lowEndMemoryGB    = 4
)

// Detect probes the environment once and returns an immutable profile.
// It never panics and never returns an error: any probe that fails or is
// missing degrades its capability flag to false.
func Detect(env Environment) CapabilityProfile {
	ua := strings.ToLower(env.UserAgent)

	p := CapabilityProfile{
		Browser:              detectBrowser(ua),
		BrowserVersion:       detectVersion(ua),
		IOS:                  strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"),
		Android:              strings.Contains(ua, "android"),
		ModernCSS:            runProbe(env.Probes.ModernCSS),
		WebGL:                runProbe(env.Probes.WebGL),
		IntersectionObserver: runProbe(env.Probes.IntersectionObserver),
		ResizeObserver:       runProbe(env.Probes.ResizeObserver),
		HardwareConcurrency:  env.HardwareConcurrency,
		DeviceMemoryGB:       env.DeviceMemoryGB,
	}
	p.Mobile = p.IOS || p.Android || strings.Contains(ua, "mobile")

	if p.HardwareConcurrency <= 0 {
		p.HardwareConcurrency = runtime.NumCPU()
	}
	p.LowEndDevice = p.HardwareConcurrency <= lowEndConcurrency ||
		(p.DeviceMemoryGB > 0 && p.DeviceMemoryGB < lowEndMemoryGB)

	logging.Get(logging.CategoryBoot).Info("capability profile detected",
		zap.String("browser", string(p.Browser)),
		zap.Int("version", p.BrowserVersion),
		zap.Bool("mobile", p.Mobile),
		zap.Bool("low_end", p.LowEndDevice))

	return p
}

// runProbe executes a host capability probe, treating nil, panic, or a
// false result identically: capability absent.
func runProbe(probe func() bool) (ok bool) {
	if probe == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryBoot).Warn("capability probe panicked",
				zap.Any("panic", r))
			ok = false
		}
	}()
	return probe()
}

// detectBrowser resolves the browser family from a lowercased user agent.
// Order matters: Edge and Opera embed "chrome", Chrome embeds "safari".
func detectBrowser(ua string) BrowserFamily {
	switch {
	case ua == "":
		return BrowserUnknown
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge/"):
		return BrowserEdge
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return BrowserOpera
	case strings.Contains(ua, "firefox/"):
		return BrowserFirefox
	case strings.Contains(ua, "chrome/") || strings.Contains(ua, "crios/"):
		return BrowserChrome
	case strings.Contains(ua, "safari/"):
		return BrowserSafari
	default:
		return BrowserUnknown
	}
}

// detectVersion extracts the major version for the detected family.
// Returns 0 when no version token is found.
func detectVersion(ua string) int {
	for _, token := range []string{"edg/", "edge/", "opr/", "firefox/", "chrome/", "crios/", "version/"} {
		idx := strings.Index(ua, token)
		if idx < 0 {
			continue
		}
		rest := ua[idx+len(token):]
		if dot := strings.IndexAny(rest, ". "); dot > 0 {
			rest = rest[:dot]
		}
		if v, err := strconv.Atoi(rest); err == nil {
			return v
		}
	}
	return 0
}

// Detector caches the first detection so every caller shares one
// immutable profile, the expected usage for process-lifetime capability
// data.
type Detector struct {
	once    sync.Once
	env     Environment
	profile CapabilityProfile
}

// NewDetector prepares a detector for the given environment. Detection
// itself is deferred to the first Profile call.
func NewDetector(env Environment) *Detector {
	return &Detector{env: env}
}

// Profile returns the cached capability profile, detecting on first use.
func (d *Detector) Profile() CapabilityProfile {
	d.once.Do(func() {
		d.profile = Detect(d.env)
	})
	return d.profile
}
