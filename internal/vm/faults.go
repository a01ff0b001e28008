package vm

import "fmt"

var errAssertFailed = fmt.Errorf("assertion failed")

func errAbortMsg(msg []byte) error {
	return fmt.Errorf("aborted: %s", string(msg))
}
