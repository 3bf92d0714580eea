package repl

import (
	"time"

	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// evalResultMsg carries the result of re-running the program
type evalResultMsg struct {
	generation int
	vars       map[string]value.Value
	err        error
	duration   time.Duration
}
