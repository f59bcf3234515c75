//go:build windows

package sheet

// syncDir is a no-op; Windows has no directory fsync.
func syncDir(string) error { return nil }
