package version

// Version is the current QRSentry release.
var Version = "1.0.0"
