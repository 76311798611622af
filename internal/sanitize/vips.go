package sanitize

import (
	"sync"

	"media-cleaner/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
	vipsAvailable   bool
)

// InitVips initializes the libvips library. Call once at startup before
// any image is sanitized through the vips path.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	// Route vips messages through our logger; suppress anything below
	// warning unless debug logging is on.
	vipsLevel := vips.LogLevelWarning
	if logging.IsDebugEnabled() {
		vipsLevel = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLevel)

	// One image at a time keeps peak memory bounded; the pipeline is
	// serial anyway.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips is initialized and usable.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}
