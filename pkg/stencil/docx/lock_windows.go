//go:build windows

package docx

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

func lockFile(f *os.File, exclusive bool) error {
	flags := uint32(windows.LOCKFILE_FAIL_IMMEDIATELY)
	if exclusive {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol); err != nil {
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return ErrLocked
		}
		return err
	}
	return nil
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}

// isSharingViolation reports an open refused because Word or another
// process holds the file without sharing.
func isSharingViolation(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION)
}

// replaceWith closes the package file, since Windows cannot rename over an
// open file, renames tmpPath into place and reacquires the lock. A failure to
// reacquire it is recorded in lockErr.
func (p *Package) replaceWith(tmpPath string) error {
	if p.file != nil {
		unlockFile(p.file)
		p.file.Close()
		p.file = nil
	}

	renameErr := os.Rename(tmpPath, p.path)

	f, err := reopenFile(p.path, os.O_RDWR, 0)
	if err != nil {
		p.lockErr = fmt.Errorf("reopen after save: %w", err)
		return renameErr
	}
	if err := lockFile(f, true); err != nil {
		f.Close()
		p.lockErr = fmt.Errorf("relock after save: %w", err)
		return renameErr
	}
	p.file = f
	p.lockErr = nil
	return renameErr
}
