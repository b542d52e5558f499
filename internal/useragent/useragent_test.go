package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_DesktopBrowsers(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		want    Summary
	}{
		{
			name: "chrome on windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: Summary{Device: DeviceDesktop, Platform: "Windows", Browser: "Chrome", BrowserVersion: "120"},
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: Summary{Device: DeviceDesktop, Platform: "Linux", Browser: "Firefox", BrowserVersion: "121"},
		},
		{
			name: "safari on mac",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			want: Summary{Device: DeviceDesktop, Platform: "macOS", Browser: "Safari", BrowserVersion: "17"},
		},
		{
			name: "edge wins over chrome token",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			want: Summary{Device: DeviceDesktop, Platform: "Windows", Browser: "Edge", BrowserVersion: "120"},
		},
		{
			name: "old IE",
			ua:   "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.1)",
			want: Summary{Device: DeviceDesktop, Platform: "Windows", Browser: "Internet Explorer", BrowserVersion: "8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.ua))
		})
	}
}

func TestParse_MobileAndTablet(t *testing.T) {
	iphone := Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/120.0.6099.119 Mobile/15E148 Safari/604.1")
	assert.Equal(t, DeviceMobile, iphone.Device)
	assert.Equal(t, "iOS", iphone.Platform)
	assert.Equal(t, "Chrome", iphone.Browser)

	ipad := Parse("Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1")
	assert.Equal(t, DeviceTablet, ipad.Device)
	assert.Equal(t, "iPadOS", ipad.Platform)

	// Android without the Mobile token is a tablet
	tablet := Parse("Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	assert.Equal(t, DeviceTablet, tablet.Device)
	assert.Equal(t, "Android", tablet.Platform)
}

func TestParse_AndroidBrowserSpecialCase(t *testing.T) {
	// stock WebKit browser: Mobile Safari token without a Chrome match
	got := Parse("Mozilla/5.0 (Linux; U; Android 4.0.3; en-us; GT-I9100 Build/IML74K) AppleWebKit/534.30 (KHTML, like Gecko) Version/4.0 Mobile Safari/534.30")

	assert.Equal(t, "Android Browser", got.Browser)
	assert.Equal(t, DeviceMobile, got.Device)
	assert.Equal(t, "Android", got.Platform)

	// Chrome on Android also carries Mobile Safari but must stay Chrome
	chrome := Parse("Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36")
	assert.Equal(t, "Chrome", chrome.Browser)
}

func TestParse_Empty(t *testing.T) {
	got := Parse("")
	assert.Equal(t, DeviceUnknown, got.Device)
	assert.Equal(t, NoData, got.String())
}

func TestSummary_String(t *testing.T) {
	s := Summary{Device: DeviceDesktop, Platform: "Windows", Browser: "Firefox", BrowserVersion: "121"}
	assert.Equal(t, "Firefox 121 on Windows (desktop)", s.String())

	s = Summary{Device: DeviceMobile, Platform: "Android"}
	assert.Equal(t, "unknown browser on Android (mobile)", s.String())
}

func TestParse_GarbageNeverPanics(t *testing.T) {
	for _, ua := range []string{"(((", "curl/8.4.0", "x", ")("} {
		assert.NotPanics(t, func() { Parse(ua) })
	}
}
