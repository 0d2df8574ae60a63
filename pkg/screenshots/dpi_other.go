//go:build !windows

package screenshots

func enableDPIAwareness() DPIMode {
	return DPINotApplicable
}
