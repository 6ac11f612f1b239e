//go:build !windows
// +build !windows

package siglog

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// checkDirPerms checks to see if name exists, is a directory, and that we
// have write and search permissions on it, so log files can be created in
// it.
func checkDirPerms(name string) error {
	fi, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", name)
	}

	if err := unix.Access(name, unix.W_OK|unix.X_OK); err != nil {
		return errors.Wrapf(err, "check write permissions on %s", name)
	}

	return nil
}
