package ipc

import "fmt"

// pipeName returns the control pipe for a logon session. Every session runs
// its own instance next to its own widget engine.
func pipeName(session uint32) string {
	return fmt.Sprintf(`\\.\pipe\widgetfreeze-%d`, session)
}
