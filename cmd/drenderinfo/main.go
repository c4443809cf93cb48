// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/core/renderer"
	"github.com/devblok/drender/device"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	pretty = flag.Bool("pretty", false, "Indent the JSON output")
)

func main() {
	flag.Parse()

	cfg := core.DefaultConfiguration()
	instance, err := renderer.NewInstance(renderer.InstanceOptions{
		ApplicationName: cfg.Renderer.ApplicationName,
		Validation:      *debug,
		Layers:          cfg.Renderer.ValidationLayers,
	}, log.WithField("tool", "drenderinfo"))
	if err != nil {
		log.WithError(err).Fatal("creating instance")
	}
	defer instance.Release()

	devices, err := device.DescribeAll(instance.Handle())
	if err != nil {
		log.WithError(err).Error("enumerating devices")
		return
	}

	var bytes []byte
	if *pretty {
		bytes, err = json.MarshalIndent(devices, "", "  ")
	} else {
		bytes, err = json.Marshal(devices)
	}
	if err != nil {
		log.WithError(err).Error("encoding devices")
		return
	}
	fmt.Fprintf(os.Stdout, "%s\n", bytes)
}
