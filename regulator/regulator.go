// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package regulator switches fixed voltage supplies, VBUS being the one
// the usb2 phy cares about. Only gpio gated "regulator-fixed" nodes are
// supported; the voltage ramp wait happens inside Enable so consumers see
// a powered rail when it returns.
package regulator

import (
	"fmt"
	"time"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"

	"github.com/platinasystems/usb2phy/internal/fdtutil"
)

type Regulator interface {
	Enable() error
	Disable() error
}

// Pin is the one gpio method a fixed regulator needs; gpio.Pin satisfies
// it.
type Pin interface {
	SetValue(bool) error
}

type Fixed struct {
	Name         string
	Pin          Pin
	ActiveHigh   bool
	StartupDelay time.Duration
}

func (r *Fixed) Enable() error {
	if err := r.Pin.SetValue(r.ActiveHigh); err != nil {
		return fmt.Errorf("%s: %v", r.Name, err)
	}
	if r.StartupDelay > 0 {
		time.Sleep(r.StartupDelay)
	}
	return nil
}

func (r *Fixed) Disable() error {
	if err := r.Pin.SetValue(!r.ActiveHigh); err != nil {
		return fmt.Errorf("%s: %v", r.Name, err)
	}
	return nil
}

// FromProperty resolves the named supply property of a consumer node,
// either a phandle or the supply node name. An absent property isn't an
// error; it returns nil, nil and the consumer runs without supply control.
func FromProperty(t *fdt.Tree, n *fdt.Node, prop string) (*Fixed, error) {
	p, found := n.Properties[prop]
	if !found {
		return nil, nil
	}
	var sn *fdt.Node
	if len(p) == 4 {
		sn = fdtutil.NodeByPhandle(t, t.PropUint32(p))
	} else {
		name, _ := fdtutil.PropString(n, prop)
		sn = fdtutil.FindNode(t, name)
	}
	if sn == nil {
		return nil, fmt.Errorf("%s: %s: supply not found", n.Name, prop)
	}
	return FromNode(t, sn)
}

// FromNode builds a fixed regulator from its device tree node. The "gpio"
// property names the enable pin in the gpio pin map.
func FromNode(t *fdt.Tree, n *fdt.Node) (*Fixed, error) {
	name, found := fdtutil.PropString(n, "regulator-name")
	if !found {
		name = n.Name
	}
	pinName, found := fdtutil.PropString(n, "gpio")
	if !found {
		return nil, fmt.Errorf("%s: no gpio property", n.Name)
	}
	pin, found := gpio.Pins[pinName]
	if !found {
		return nil, fmt.Errorf("%s: no pin %s", n.Name, pinName)
	}
	r := &Fixed{
		Name:       name,
		Pin:        pin,
		ActiveHigh: fdtutil.HasProp(n, "enable-active-high"),
	}
	if us, found := fdtutil.PropU32(t, n, "startup-delay-us"); found {
		r.StartupDelay = time.Duration(us) * time.Microsecond
	}
	return r, nil
}
