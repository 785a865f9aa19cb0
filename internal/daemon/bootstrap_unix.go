//go:build !windows

package daemon

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true, // new session, no controlling terminal
	}
}
