// Package useragent extracts a rough device/platform/browser summary from a
// raw User-Agent header. The parsing is a best-effort heuristic over known
// tokens and must never be treated as authoritative.
package useragent

import (
	"regexp"
	"strings"
)

// DeviceClass is the coarse device bucket shown in the report.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceUnknown DeviceClass = "unknown"
)

// Summary is the parsed result. Zero-value fields mean "could not tell".
type Summary struct {
	Device         DeviceClass `json:"device"`
	Platform       string      `json:"platform,omitempty"`
	Browser        string      `json:"browser,omitempty"`
	BrowserVersion string      `json:"browser_version,omitempty"`
}

// NoData is rendered when the client sent no user-agent string at all.
const NoData = "no data available"

// browserProbe matches a browser token and names it. Order matters: Chrome
// and Safari appear in almost every engine's UA string, so the more specific
// tokens come first and the first hit wins.
type browserProbe struct {
	pattern *regexp.Regexp
	name    string
}

var browserProbes = []browserProbe{
	{regexp.MustCompile(`Edg(?:e|A|iOS)?/([0-9.]+)`), "Edge"},
	{regexp.MustCompile(`OPR/([0-9.]+)`), "Opera"},
	{regexp.MustCompile(`Opera[/ ]([0-9.]+)`), "Opera"},
	{regexp.MustCompile(`SamsungBrowser/([0-9.]+)`), "Samsung Internet"},
	{regexp.MustCompile(`Firefox/([0-9.]+)`), "Firefox"},
	{regexp.MustCompile(`MSIE ([0-9.]+)`), "Internet Explorer"},
	{regexp.MustCompile(`Trident/.*rv:([0-9.]+)`), "Internet Explorer"},
	{regexp.MustCompile(`CriOS/([0-9.]+)`), "Chrome"},
	{regexp.MustCompile(`Chrome/([0-9.]+)`), "Chrome"},
	{regexp.MustCompile(`Version/([0-9.]+).*Safari`), "Safari"},
	{regexp.MustCompile(`Safari/([0-9.]+)`), "Safari"},
}

var parenSegment = regexp.MustCompile(`\(([^)]*)\)`)

// Parse derives a Summary from a raw User-Agent string. An empty input
// yields an all-unknown summary; Parse never fails.
func Parse(ua string) Summary {
	summary := Summary{Device: DeviceUnknown}
	if strings.TrimSpace(ua) == "" {
		return summary
	}

	summary.Device = deviceClass(ua)
	summary.Platform = platformName(ua)
	summary.Browser, summary.BrowserVersion = browserName(ua)
	return summary
}

func deviceClass(ua string) DeviceClass {
	switch {
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		return DeviceTablet
	case strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile"):
		// Android without the Mobile token is a tablet by convention
		return DeviceTablet
	case strings.Contains(ua, "Mobi") || strings.Contains(ua, "iPhone") ||
		strings.Contains(ua, "iPod") || strings.Contains(ua, "Windows Phone") ||
		strings.Contains(ua, "BlackBerry"):
		return DeviceMobile
	case strings.Contains(ua, "Windows") || strings.Contains(ua, "Macintosh") ||
		strings.Contains(ua, "X11") || strings.Contains(ua, "Linux") ||
		strings.Contains(ua, "CrOS"):
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

// platformName looks inside the first parenthesized segment, which is where
// user agents conventionally describe the host system.
func platformName(ua string) string {
	m := parenSegment.FindStringSubmatch(ua)
	if m == nil {
		return ""
	}
	segment := m[1]

	switch {
	case strings.Contains(segment, "Windows Phone"):
		return "Windows Phone"
	case strings.Contains(segment, "Windows"):
		return "Windows"
	case strings.Contains(segment, "iPhone") || strings.Contains(segment, "iPod"):
		return "iOS"
	case strings.Contains(segment, "iPad"):
		return "iPadOS"
	case strings.Contains(segment, "Macintosh") || strings.Contains(segment, "Mac OS X"):
		return "macOS"
	case strings.Contains(segment, "CrOS"):
		return "ChromeOS"
	case strings.Contains(segment, "Android"):
		return "Android"
	case strings.Contains(segment, "Linux") || strings.Contains(segment, "X11"):
		return "Linux"
	case strings.Contains(segment, "BlackBerry"):
		return "BlackBerry"
	}

	// fall back to the first semicolon-separated field
	if idx := strings.IndexByte(segment, ';'); idx > 0 {
		return strings.TrimSpace(segment[:idx])
	}
	return strings.TrimSpace(segment)
}

func browserName(ua string) (string, string) {
	for _, probe := range browserProbes {
		m := probe.pattern.FindStringSubmatch(ua)
		if m == nil {
			continue
		}
		name := probe.name
		// The stock Android WebKit browser identifies as Mobile Safari but
		// is not Safari; report it under its own label.
		if name == "Safari" && strings.Contains(ua, "Android") && strings.Contains(ua, "Mobile Safari") {
			name = "Android Browser"
		}
		return name, majorVersion(m[1])
	}
	return "", ""
}

func majorVersion(version string) string {
	if idx := strings.IndexByte(version, '.'); idx > 0 {
		return version[:idx]
	}
	return version
}

// String renders the summary for the report's device panel and RSS
// descriptions.
func (s Summary) String() string {
	if s.Browser == "" && s.Platform == "" && s.Device == DeviceUnknown {
		return NoData
	}

	var b strings.Builder
	if s.Browser != "" {
		b.WriteString(s.Browser)
		if s.BrowserVersion != "" {
			b.WriteString(" ")
			b.WriteString(s.BrowserVersion)
		}
	} else {
		b.WriteString("unknown browser")
	}
	if s.Platform != "" {
		b.WriteString(" on ")
		b.WriteString(s.Platform)
	}
	b.WriteString(" (")
	b.WriteString(string(s.Device))
	b.WriteString(")")
	return b.String()
}
