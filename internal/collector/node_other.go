//go:build !linux

package collector

import "runtime"

func readNode(hw *HardwareInfo) {
	hw.Node.Architecture = runtime.GOARCH
}
