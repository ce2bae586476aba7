//go:build windows
// +build windows

package sysutil

import "errors"

// RlimitNofile is not supported on windows.
func RlimitNofile() (uint64, error) {
	return 0, errors.New("limit of open files is not available on windows")
}
