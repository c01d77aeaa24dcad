package traversal

// DiscontinuousPathError means the traversal stack's last two entries are
// neither a setup nor a cleanup edge of each other: a programming invariant
// broken, fatal to the job (§4.4 step 4, §7).
type DiscontinuousPathError struct {
	From string
	To   string
}

func (e DiscontinuousPathError) Error() string {
	return "discontinuous traversal path between " + e.From + " and " + e.To
}

// StuckOnOccupiedError means a worker backed off on the same occupied node
// for longer than the test timeout allows; fatal to that worker only (§4.4
// step 3, §7).
type StuckOnOccupiedError struct {
	Worker string
	Node   string
}

func (e StuckOnOccupiedError) Error() string {
	return "worker " + e.Worker + " stuck on occupied node " + e.Node
}

// PermanentRootMisconfiguredError means an object marked permanent has no
// explicit create_permanent_vm=yes opt-in on the node attempting its
// object-root install (§4.8); fatal to the current job.
type PermanentRootMisconfiguredError struct {
	Suffix string
	Node   string
}

func (e PermanentRootMisconfiguredError) Error() string {
	return "object " + e.Suffix + " is permanent; node " + e.Node + " must set create_permanent_vm=yes to (re)install it"
}
