//go:build !debug

package errors

// DebugLoggingEnabled gates the debug log sites in the handshake
// operations. It is false unless the debug build tag is set, and the
// compiler removes the sites it guards.
const DebugLoggingEnabled = false
