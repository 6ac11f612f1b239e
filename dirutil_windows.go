//go:build windows
// +build windows

package siglog

import (
	"os"

	"github.com/pkg/errors"
)

func checkDirPerms(name string) error {
	fi, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", name)
	}

	// Attempt to create a file, and remove it before returning.
	f, err := os.CreateTemp(name, "siglogwrchk")
	if err != nil {
		return errors.Wrapf(err, "no write permissions on %s", name)
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}
