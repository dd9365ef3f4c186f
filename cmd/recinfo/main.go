// Package main is a command that prints the tracks, configuration, and
// duration of a recording file.
package main

import (
	"flag"
	"fmt"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"go.viam.com/depthcam/playback"
	"go.viam.com/depthcam/recfile"
)

var logger = golog.NewLogger("recinfo")

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		logger.Fatal("need one arg <recording>")
	}

	reader, err := recfile.OpenReader(flag.Arg(0), logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer utils.UncheckedErrorFunc(reader.Close)

	config := reader.RecordConfiguration()
	fmt.Printf("duration: %d usec\n", reader.LastTimestampUsec())
	fmt.Printf("depth mode: %s, color: %s @ %s, fps: %d\n",
		config.DepthMode, config.ColorFormat, config.ColorResolution, config.CameraFPS)

	for _, name := range []string{
		playback.TrackNameColor,
		playback.TrackNameDepth,
		playback.TrackNameIR,
		playback.TrackNameIMU,
	} {
		if !reader.TrackExists(name) {
			continue
		}
		count := reader.TrackFrameCount(name)
		if info, err := reader.TrackVideoInfo(name); err == nil {
			fmt.Printf("%-6s %4d blocks, %dx%d @ %d fps\n", name, count, info.Width, info.Height, info.FrameRate)
		} else {
			fmt.Printf("%-6s %4d blocks\n", name, count)
		}
	}

	if _, err := reader.Calibration(); err == nil {
		fmt.Println("calibration: present")
	} else {
		fmt.Println("calibration: missing")
	}
}
