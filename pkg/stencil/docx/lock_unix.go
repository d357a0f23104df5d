//go:build unix

package docx

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes a non-blocking flock on f. Exclusive locks conflict with any
// other lock on the file, shared locks only with exclusive ones.
func lockFile(f *os.File, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked
		}
		return err
	}
	return nil
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

func isSharingViolation(error) bool {
	return false
}

// replaceWith renames tmpPath over the package file, then moves the lock to
// the new file. If the new file cannot be reopened or locked, the old handle
// is kept and the reason is recorded in lockErr.
func (p *Package) replaceWith(tmpPath string) error {
	if err := os.Rename(tmpPath, p.path); err != nil {
		return err
	}

	f, err := reopenFile(p.path, os.O_RDWR, 0)
	if err != nil {
		p.lockErr = fmt.Errorf("reopen after save: %w", err)
		return nil
	}
	if err := lockFile(f, true); err != nil {
		f.Close()
		p.lockErr = fmt.Errorf("relock after save: %w", err)
		return nil
	}
	unlockFile(p.file)
	p.file.Close()
	p.file = f
	p.lockErr = nil
	return nil
}
