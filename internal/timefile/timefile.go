// Package timefile persists the dispatcher's "point in time" watermark:
// the last unix-seconds timestamp the dispatcher has fully promoted the
// timeline up to, durable across restarts.
package timefile

import (
	"os"
	"strconv"
	"strings"

	"github.com/teranos/redbike/errors"
)

// Read returns the stored point-in-time, or ok=false if the file does
// not exist yet (a fresh dispatcher with no prior run).
func Read(path string) (pointInTime int64, ok bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to read timefile %s", path)
	}
	ts, parseErr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if parseErr != nil {
		return 0, false, errors.Wrapf(parseErr, "malformed timefile %s", path)
	}
	return ts, true, nil
}

// Write durably replaces path's contents with pointInTime: it writes to
// "<path>.0" first, then renames over path, so a reader never observes a
// truncated file.
func Write(path string, pointInTime int64) error {
	tmp := path + ".0"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(pointInTime, 10)), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to rename %s into place over %s", tmp, path)
	}
	return nil
}
