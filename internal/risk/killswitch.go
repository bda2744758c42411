package risk

import (
	"errors"
	"fmt"
	"os"
)

// KillSwitch is an operator-controlled hard stop: a sentinel file on disk.
// Presence is re-checked on every call so an operator can halt trading with
// `touch` and resume with `rm`, no restart needed.
type KillSwitch struct {
	path string
}

// NewKillSwitch watches the sentinel file at path.
func NewKillSwitch(path string) *KillSwitch {
	return &KillSwitch{path: path}
}

// Engaged reports whether the sentinel file exists. Stat errors other than
// "not exist" count as engaged: when we cannot tell, we do not trade.
func (k *KillSwitch) Engaged() bool {
	_, err := os.Stat(k.path)
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrNotExist)
}

// Engage creates the sentinel file.
func (k *KillSwitch) Engage() error {
	f, err := os.OpenFile(k.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("risk: engage kill switch: %w", err)
	}
	return f.Close()
}

// Clear removes the sentinel file. Clearing an already-clear switch is not
// an error.
func (k *KillSwitch) Clear() error {
	if err := os.Remove(k.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("risk: clear kill switch: %w", err)
	}
	return nil
}
