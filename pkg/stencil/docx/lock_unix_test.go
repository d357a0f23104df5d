//go:build unix

package docx

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLocked(t *testing.T) {
	path := buildPackage(t, map[string]string{"word/document.xml": documentXML("")})

	writer, err := Open(path, ReadWrite)
	require.NoError(t, err)

	_, err = Open(path, ReadOnly)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = Open(path, ReadWrite)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, writer.Close())

	readerA, err := Open(path, ReadOnly)
	require.NoError(t, err)
	defer readerA.Close()
	readerB, err := Open(path, ReadOnly)
	require.NoError(t, err)
	defer readerB.Close()

	_, err = Open(path, ReadWrite)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestSaveKeepsLock(t *testing.T) {
	path := buildPackage(t, map[string]string{"word/document.xml": documentXML(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`)})

	pkg, err := Open(path, ReadWrite)
	require.NoError(t, err)
	defer pkg.Close()

	body, err := pkg.Body()
	require.NoError(t, err)
	body.Paragraphs[0].SetRuns(NewRun(nil, "y"))
	require.NoError(t, pkg.Save())

	_, err = Open(path, ReadOnly)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestSaveReportsLostLock(t *testing.T) {
	path := buildPackage(t, map[string]string{"word/document.xml": documentXML(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`)})

	pkg, err := Open(path, ReadWrite)
	require.NoError(t, err)

	body, err := pkg.Body()
	require.NoError(t, err)
	body.Paragraphs[0].SetRuns(NewRun(nil, "y"))

	orig := reopenFile
	t.Cleanup(func() { reopenFile = orig })
	reopenFile = func(string, int, os.FileMode) (*os.File, error) {
		return nil, errors.New("too many open files")
	}

	require.NoError(t, pkg.Save())
	lockErr := pkg.LockError()
	require.Error(t, lockErr)
	assert.Contains(t, lockErr.Error(), "reopen after save")

	require.NoError(t, pkg.Close())
	assert.Contains(t, readPart(t, path, "word/document.xml"), "y")
}
