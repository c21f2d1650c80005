// Package native binds registry.Backend to the Windows registry through
// advapi32. Handles returned by the store are real HKEYs, and LoadKey and
// SaveKey work on binary hive files rather than .reg text.
//
// On other platforms Open fails; use the memory or boltstore backends there.
package native
