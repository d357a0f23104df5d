//go:build !unix && !windows

package docx

import "os"

func lockFile(*os.File, bool) error { return nil }

func unlockFile(*os.File) error { return nil }

func isSharingViolation(error) bool { return false }

func (p *Package) replaceWith(tmpPath string) error {
	return os.Rename(tmpPath, p.path)
}
