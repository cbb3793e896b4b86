// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtgpio fills the gpio alias and pin maps from the device tree,
// so supply regulators can name their enable pins.
package fdtgpio

import (
	"strconv"
	"strings"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
)

// GatherAliases records the gpio controller aliases of the /aliases node.
func GatherAliases(n *fdt.Node) {
	for name, value := range n.Properties {
		if !strings.Contains(name, "gpio") {
			continue
		}
		path := strings.SplitN(string(value), "\x00", 2)[0]
		parts := strings.Split(path, "/")
		gpio.Aliases[name] = parts[len(parts)-1]
	}
}

// GatherPins builds the pin map from one gpio-controller node's
// gpio-pin-desc children.
func GatherPins(n *fdt.Node, name string, value string) {
	for alias, controller := range gpio.Aliases {
		if controller != n.Name {
			continue
		}
		for _, c := range n.Children {
			pin, mode := pinDesc(c)
			if len(pin) == 0 || len(mode) == 0 {
				continue
			}
			name, index, found := strings.Cut(pin, "@")
			if !found {
				continue
			}
			i, err := strconv.Atoi(index)
			if err != nil {
				continue
			}
			gpio.Pins[name] = gpio.GpioPinMode[mode] |
				gpio.GpioBankToBase[alias] |
				gpio.Pin(i)
		}
	}
}

func pinDesc(n *fdt.Node) (pin, mode string) {
	for p := range n.Properties {
		switch p {
		case "gpio-pin-desc":
			pin = n.Name
		case "output-high", "output-low", "input":
			mode = p
		}
	}
	return
}
