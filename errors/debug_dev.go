//go:build debug

package errors

// DebugLoggingEnabled gates the debug log sites in the handshake
// operations. Build with -tags=debug to compile them in.
const DebugLoggingEnabled = true
