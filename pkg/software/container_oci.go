package software

import (
	"math"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// cfsPeriodUs is the standard CFS bandwidth control period (100ms),
// the same constant container runtimes use to turn a milli-CPU limit
// into a quota/period pair.
const cfsPeriodUs = 100000

// OCIResources renders the container's CPU/RAM limits as an OCI
// runtime-spec LinuxResources block (github.com/opencontainers/runtime-spec),
// the shape `vsim serve`'s inspection API exposes so a limit configured
// in a scenario file reads the same way a real container runtime's
// cgroup limits would. An unlimited (+Inf) resource is omitted, matching
// an unconstrained cgroup.
func (c *Container) OCIResources() *specs.LinuxResources {
	res := &specs.LinuxResources{}

	if !math.IsInf(c.CPULimitVal, 1) {
		period := uint64(cfsPeriodUs)
		quota := int64(c.CPULimitVal / 1000 * cfsPeriodUs)
		res.CPU = &specs.LinuxCPU{Period: &period, Quota: &quota}
	}
	if !math.IsInf(c.RAMLimitVal, 1) {
		limit := int64(c.RAMLimitVal)
		res.Memory = &specs.LinuxMemory{Limit: &limit}
	}
	return res
}
