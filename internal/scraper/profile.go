package scraper

import (
	"fmt"
	"math/rand/v2"

	"trendscope/internal/app"
)

// Profile holds a coherent browser fingerprint for a single scrape session.
// Hardware and screen values are randomized per session; locale, timezone and
// geolocation are pinned to the configured region so the target serves
// region-consistent content.
type Profile struct {
	UserAgent           string
	Brands              [][2]string // [brand, majorVersion]
	FullVersionList     [][2]string // [brand, fullVersion]
	Platform            string      // Client Hints platform (e.g. "Windows")
	PlatformVersion     string
	Architecture        string
	Bitness             string
	NavigatorPlatform   string // navigator.platform value
	AcceptLanguage      string
	Languages           []string
	HardwareConcurrency int64
	DeviceMemory        int
	ScreenWidth         int
	ScreenHeight        int
	ColorDepth          int
	WebGLVendor         string
	WebGLRenderer       string
	TimezoneID          string
	Latitude            float64
	Longitude           float64
	NoiseSeed           uint32 // per-session PRNG seed for canvas noise
}

type platformPreset struct {
	uaOS              string // OS fragment inside the UA string
	navigatorPlatform string
	chPlatform        string
	chPlatformVersion string
	architecture      string
	bitness           string
	webGLRenderers    []webGLPreset
}

type webGLPreset struct {
	vendor   string
	renderer string
}

var platformPresets = []platformPreset{
	{
		uaOS:              "Windows NT 10.0; Win64; x64",
		navigatorPlatform: "Win32",
		chPlatform:        "Windows",
		chPlatformVersion: "10.0.0",
		architecture:      "x86",
		bitness:           "64",
		webGLRenderers: []webGLPreset{
			{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
			{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce GTX 1650 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
		},
	},
	{
		uaOS:              "Macintosh; Intel Mac OS X 10_15_7",
		navigatorPlatform: "MacIntel",
		chPlatform:        "macOS",
		chPlatformVersion: "14.5.0",
		architecture:      "arm",
		bitness:           "64",
		webGLRenderers: []webGLPreset{
			{"Google Inc. (Apple)", "ANGLE (Apple, Apple M1, OpenGL 4.1)"},
			{"Google Inc. (Intel Inc.)", "ANGLE (Intel Inc., Intel Iris Plus Graphics, OpenGL 4.1)"},
		},
	},
}

type screenPreset struct {
	width  int
	height int
}

var screenPresets = []screenPreset{
	{1920, 1080},
	{2560, 1440},
	{1536, 864},
	{1680, 1050},
}

type chromeVersion struct {
	major string
	full  string
}

var chromeVersions = []chromeVersion{
	{"131", "131.0.0.0"},
	{"132", "132.0.0.0"},
	{"133", "133.0.0.0"},
}

var (
	hardwareConcurrencies = []int64{4, 8, 12, 16}
	deviceMemories        = []int{4, 8, 16}
	greaseBrands          = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}
)

// NewProfile builds a randomized but internally-consistent fingerprint,
// pinned to the given region.
func NewProfile(region app.RegionConfig) *Profile {
	plat := platformPresets[rand.IntN(len(platformPresets))]
	webgl := plat.webGLRenderers[rand.IntN(len(plat.webGLRenderers))]
	scr := screenPresets[rand.IntN(len(screenPresets))]
	ver := chromeVersions[rand.IntN(len(chromeVersions))]
	grease := greaseBrands[rand.IntN(len(greaseBrands))]

	ua := region.UserAgent
	if ua == "" {
		ua = fmt.Sprintf(
			"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
			plat.uaOS, ver.full,
		)
	}

	return &Profile{
		UserAgent: ua,
		Brands: [][2]string{
			{grease, "8"},
			{"Chromium", ver.major},
			{"Google Chrome", ver.major},
		},
		FullVersionList: [][2]string{
			{grease, "8.0.0.0"},
			{"Chromium", ver.full},
			{"Google Chrome", ver.full},
		},
		Platform:            plat.chPlatform,
		PlatformVersion:     plat.chPlatformVersion,
		Architecture:        plat.architecture,
		Bitness:             plat.bitness,
		NavigatorPlatform:   plat.navigatorPlatform,
		AcceptLanguage:      region.AcceptLanguage,
		Languages:           region.Languages,
		HardwareConcurrency: hardwareConcurrencies[rand.IntN(len(hardwareConcurrencies))],
		DeviceMemory:        deviceMemories[rand.IntN(len(deviceMemories))],
		ScreenWidth:         scr.width,
		ScreenHeight:        scr.height,
		ColorDepth:          24,
		WebGLVendor:         webgl.vendor,
		WebGLRenderer:       webgl.renderer,
		TimezoneID:          region.Timezone,
		Latitude:            region.Latitude,
		Longitude:           region.Longitude,
		NoiseSeed:           rand.Uint32(),
	}
}
