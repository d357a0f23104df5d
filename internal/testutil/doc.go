// Package testutil builds word-processing packages on disk for tests.
//
// Fixtures are written with archive/zip so tests never depend on binary
// files checked into the repository.
package testutil
