package types

// Address is the externally observed network address of the host.
// It is compared by equality only.
type Address string

// String returns the address as text
func (a Address) String() string {
	return string(a)
}

// RunMode selects between a single check and continuous monitoring
type RunMode string

const (
	RunModeOnce       RunMode = "once"
	RunModeContinuous RunMode = "continuous"
)
