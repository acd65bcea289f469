package version

// Overridden at build time with -ldflags "-X sonora/internal/version.Version=...".
var (
	AppName = "Sonora"
	Version = "dev"
)
