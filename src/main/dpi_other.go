//go:build !windows

package main

import (
	"screen-pin/src/desktop"
	"screen-pin/src/logutil"
)

func enableDPIAwareness() {}

func logMonitorConfiguration(sink logutil.Sink) {
	info, err := (desktop.System{Log: sink}).VirtualScreen()
	if err != nil {
		logutil.Logf(sink, logutil.LevelWarn, "MONITOR: %v", err)
		return
	}
	logutil.Logf(sink, logutil.LevelInfo, "MONITOR: Virtual screen %v", info)
}
