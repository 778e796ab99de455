package disbotter

// Version is the release version, overridable with -ldflags "-X".
var Version = "0.1.0"
