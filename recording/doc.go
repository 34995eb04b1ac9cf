// Package recording provides a gpucore.Adapter that executes nothing and
// records everything. Buffer contents are kept in memory, so tests can
// assert on exact vertex data, call ordering and state binds without a
// GPU. It backs the package's own test suites and is useful for golden
// testing of application draw code.
package recording
