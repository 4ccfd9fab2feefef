package version

// Version is overridden at build time with
// -ldflags "-X github.com/lumilend/backend/internal/version.Version=<tag>".
var Version = "dev"
