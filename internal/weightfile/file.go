package weightfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SerializationError reports a weight file that could not be written.
// No partial file is left at Path when it is returned.
type SerializationError struct {
	Path string
	Op   string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsSerialization reports whether err was caused by a *SerializationError.
func IsSerialization(err error) bool {
	var target *SerializationError
	return errors.As(err, &target)
}

// WriteFile encodes m into path atomically: the data goes to a temporary
// file in the same directory, which is synced and renamed over path.
// An existing file at path is replaced.
func WriteFile(path string, m Model) error {
	return writeAtomic(path, func(f *os.File) error { return Encode(f, m) })
}

func writeAtomic(path string, write func(*os.File) error) (err error) {
	fail := func(op string, e error) error {
		return &SerializationError{Path: path, Op: op, Err: e}
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fail("create", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail("rename", err)
	}
	return nil
}
