package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"trendscope/internal/app"
)

// Stealth JS snippets — injected before any page script runs to mask headless
// Chrome fingerprints. Placeholders ({{…}}) are replaced per-session by
// buildStealthJS.
//
// Overrides already handled at CDP level are NOT duplicated here:
//   - navigator.webdriver           → SetAutomationOverride
//   - document.hasFocus()           → SetFocusEmulationEnabled
//   - navigator.hardwareConcurrency → SetHardwareConcurrencyOverride
//   - navigator.platform/languages  → SetUserAgentOverride
//   - timezone / geolocation        → SetTimezoneOverride / SetGeolocationOverride

// Must be first: defines __cloak used by subsequent snippets so overridden
// functions still stringify as native code.
const stealthToStringJS = `
(function() {
  const registry = new Map();
  const origToString = Function.prototype.toString;
  const replacement = function toString() {
    if (registry.has(this)) return registry.get(this);
    return origToString.call(this);
  };
  registry.set(replacement, 'function toString() { [native code] }');
  Function.prototype.toString = replacement;
  __cloak = function(fn, name) {
    const n = name || fn.name || '';
    registry.set(fn, 'function ' + n + '() { [native code] }');
  };
})();
var __cloak;`

// window.chrome stub: headless builds omit it entirely.
const stealthChromeJS = `
if (!window.chrome) {
  window.chrome = {
    runtime: {
      onMessage: { addListener: () => {}, removeListener: () => {} },
      sendMessage: () => {},
      connect: () => ({ onMessage: { addListener: () => {} }, postMessage: () => {} })
    },
    loadTimes: () => ({}),
    csi: () => ({})
  };
}`

// Notifications permission query: headless answers 'denied' without a prompt.
const stealthPermissionsJS = `
(function() {
  const origQuery = window.Permissions && Permissions.prototype.query;
  if (origQuery) {
    Permissions.prototype.query = function(params) {
      if (params.name === 'notifications') {
        return Promise.resolve({ state: 'prompt', onchange: null });
      }
      return origQuery.call(this, params);
    };
    if (typeof __cloak !== 'undefined') __cloak(Permissions.prototype.query, 'query');
  }
})();`

// WebGL vendor/renderer from the profile instead of SwiftShader.
const stealthWebGLJS = `
(function() {
  const patch = function(proto) {
    const getParameter = proto.getParameter;
    proto.getParameter = function(param) {
      if (param === 37445) return '{{WEBGL_VENDOR}}';
      if (param === 37446) return '{{WEBGL_RENDERER}}';
      return getParameter.call(this, param);
    };
    if (typeof __cloak !== 'undefined') __cloak(proto.getParameter, 'getParameter');
  };
  patch(WebGLRenderingContext.prototype);
  patch(WebGL2RenderingContext.prototype);
})();`

const stealthDeviceMemoryJS = `
Object.defineProperty(navigator, 'deviceMemory', { get: () => {{DEVICE_MEMORY}} });`

const stealthScreenJS = `
Object.defineProperty(screen, 'colorDepth', { get: () => {{COLOR_DEPTH}} });
Object.defineProperty(screen, 'pixelDepth', { get: () => {{COLOR_DEPTH}} });`

// Canvas readback noise, seeded per session so the fingerprint is stable
// within a scrape but unique across scrapes.
const stealthCanvasJS = `
(function() {
  var seed = ({{NOISE_SEED}} >>> 0) || 1;
  function xorshift32() {
    seed ^= seed << 13;
    seed ^= seed >> 17;
    seed ^= seed << 5;
    return seed >>> 0;
  }

  function noiseCanvas(canvas, ctx) {
    if (!ctx || canvas.width <= 0 || canvas.height <= 0) return;
    try {
      var w = Math.min(canvas.width, 16);
      var imageData = ctx.getImageData(0, 0, w, 1);
      var d = imageData.data;
      for (var i = 0; i < w * 4; i++) {
        d[i] = Math.max(0, Math.min(255, d[i] + (xorshift32() % 3) - 1));
      }
      ctx.putImageData(imageData, 0, 0);
    } catch(e) {}
  }

  var origToDataURL = HTMLCanvasElement.prototype.toDataURL;
  HTMLCanvasElement.prototype.toDataURL = function(type, quality) {
    noiseCanvas(this, this.getContext('2d'));
    return origToDataURL.call(this, type, quality);
  };
  if (typeof __cloak !== 'undefined') __cloak(HTMLCanvasElement.prototype.toDataURL, 'toDataURL');

  var origToBlob = HTMLCanvasElement.prototype.toBlob;
  HTMLCanvasElement.prototype.toBlob = function(callback, type, quality) {
    noiseCanvas(this, this.getContext('2d'));
    return origToBlob.call(this, callback, type, quality);
  };
  if (typeof __cloak !== 'undefined') __cloak(HTMLCanvasElement.prototype.toBlob, 'toBlob');
})();`

// buildStealthJS joins all stealth snippets and fills placeholders from a Profile.
func buildStealthJS(profile *Profile) string {
	snippets := []string{
		stealthToStringJS,
		stealthChromeJS,
		stealthPermissionsJS,
		stealthWebGLJS,
		stealthDeviceMemoryJS,
		stealthScreenJS,
		stealthCanvasJS,
	}

	r := strings.NewReplacer(
		"{{DEVICE_MEMORY}}", fmt.Sprintf("%d", profile.DeviceMemory),
		"{{COLOR_DEPTH}}", fmt.Sprintf("%d", profile.ColorDepth),
		"{{WEBGL_VENDOR}}", profile.WebGLVendor,
		"{{WEBGL_RENDERER}}", profile.WebGLRenderer,
		"{{NOISE_SEED}}", fmt.Sprintf("%d", profile.NoiseSeed),
	)
	return r.Replace(strings.Join(snippets, "\n"))
}

// allocatorOpts returns chromedp exec-allocator options that avoid common
// headless-detection flags. Window size and UA come from the profile.
func allocatorOpts(cfg app.BrowserConfig, profile *Profile) []chromedp.ExecAllocatorOption {
	var headlessVal string
	if cfg.Headless {
		headlessVal = "new"
	}

	return []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(cfg.ChromePath),

		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		// New headless mode is less detectable than legacy.
		chromedp.Flag("headless", headlessVal),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("mute-audio", true),

		chromedp.Flag("lang", profile.Languages[0]),

		chromedp.WindowSize(profile.ScreenWidth, profile.ScreenHeight),
		chromedp.UserAgent(profile.UserAgent),
	}
}

// injectStealth returns a chromedp action that injects the stealth script
// before any page JS runs.
func injectStealth(profile *Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(buildStealthJS(profile)).Do(ctx)
		return err
	}
}

// injectCDPStealth returns a chromedp action that applies CDP-level overrides
// for signals JS injection alone cannot cover.
func injectCDPStealth(profile *Profile) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := emulation.SetAutomationOverride(false).Do(ctx); err != nil {
			return err
		}

		// Simulate a focused window so document.hasFocus() returns true.
		if err := emulation.SetFocusEmulationEnabled(true).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetHardwareConcurrencyOverride(profile.HardwareConcurrency).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetTimezoneOverride(profile.TimezoneID).Do(ctx); err != nil {
			return err
		}

		if err := emulation.SetLocaleOverride().WithLocale(profile.Languages[0]).Do(ctx); err != nil {
			return err
		}

		// Pin reported coordinates to the emulated region.
		if profile.Latitude != 0 || profile.Longitude != 0 {
			geo := emulation.SetGeolocationOverride().
				WithLatitude(profile.Latitude).
				WithLongitude(profile.Longitude).
				WithAccuracy(50)
			if err := geo.Do(ctx); err != nil {
				return err
			}
		}

		// Full User-Agent override with Client Hints metadata so
		// navigator.userAgentData doesn't leak "HeadlessChrome".
		ua := emulation.SetUserAgentOverride(profile.UserAgent)
		ua.AcceptLanguage = profile.AcceptLanguage
		ua.Platform = profile.NavigatorPlatform

		brands := make([]*emulation.UserAgentBrandVersion, len(profile.Brands))
		for i, b := range profile.Brands {
			brands[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
		}
		fullVersionList := make([]*emulation.UserAgentBrandVersion, len(profile.FullVersionList))
		for i, b := range profile.FullVersionList {
			fullVersionList[i] = &emulation.UserAgentBrandVersion{Brand: b[0], Version: b[1]}
		}

		ua.UserAgentMetadata = &emulation.UserAgentMetadata{
			Brands:          brands,
			FullVersionList: fullVersionList,
			Platform:        profile.Platform,
			PlatformVersion: profile.PlatformVersion,
			Architecture:    profile.Architecture,
			Model:           "",
			Mobile:          false,
			Bitness:         profile.Bitness,
		}
		return ua.Do(ctx)
	}
}
