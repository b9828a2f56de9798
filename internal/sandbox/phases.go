package sandbox

import "fmt"

// Phase names one step of a sandbox run.
type Phase string

const (
	PhaseTeardown          Phase = "teardown"
	PhaseProvisionRoot     Phase = "provision-root"
	PhaseProvisionTrees    Phase = "provision-trees"
	PhaseRepairLayout      Phase = "repair-layout"
	PhaseBuildRunHierarchy Phase = "build-run-hierarchy"
	PhaseBridgeResources   Phase = "bridge-resources"
	PhaseBridgePseudoFS    Phase = "bridge-kernel-pseudofs"
	PhaseBrand             Phase = "brand"
	PhaseLaunch            Phase = "launch"
)

// Outcome tags a phase Result.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeDegraded
	OutcomeAbort
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeAbort:
		return "abort"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a phase reports back to the state machine.
type Result struct {
	Outcome Outcome
	Reasons []string
	Err     error
}

// Continue reports a phase that completed normally.
func Continue() Result {
	return Result{Outcome: OutcomeContinue}
}

// Degraded reports a phase that completed with missing pieces.
func Degraded(reasons ...string) Result {
	return Result{Outcome: OutcomeDegraded, Reasons: reasons}
}

// Abort reports a phase that cannot be recovered from.
func Abort(err error) Result {
	return Result{Outcome: OutcomeAbort, Err: err}
}

// degradations accumulates reasons within a phase.
type degradations []string

func (d *degradations) add(format string, args ...any) {
	*d = append(*d, fmt.Sprintf(format, args...))
}

func (d degradations) result() Result {
	if len(d) == 0 {
		return Continue()
	}
	return Degraded(d...)
}
