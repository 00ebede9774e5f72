package state

import (
	_ "embed"
	"time"
)

//go:embed default.css
var defaultStylesheet []byte

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start:             time.Now(),
		DefaultStylesheet: defaultStylesheet,
	}
}
