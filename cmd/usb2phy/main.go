// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Usb2phy brings up a usb2 phy from the command line.
//
//	usb2phy [-dtb FILE] [-node NAME] [-mode host|device|otg] [-otg-init]
//	usb2phy [-dtb FILE] [-node NAME] -off
//
// The device tree blob supplies the register base, vbus supply, and
// reference clock. The default mode is otg, which resolves host or device
// from the ID pin.
package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/gpio"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/usb2phy"
	"github.com/platinasystems/usb2phy/internal/fdtgpio"
)

const usage = "usage: usb2phy [-dtb FILE] [-node NAME] [-mode MODE] [-otg-init] [-off] [-quiet]"

func main() {
	if err := run(os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, "usb2phy:", err)
		os.Exit(1)
	}
}

func run(args ...string) error {
	flag, args := flags.New(args, "-otg-init", "-off", "-quiet", "-help")
	parm, args := parms.New(args, "-dtb", "-node", "-mode")
	if flag.ByName["-help"] {
		fmt.Println(usage)
		return nil
	}
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	dtb := parm.ByName["-dtb"]
	if len(dtb) == 0 {
		dtb = "/boot/linux.dtb"
	}
	node := parm.ByName["-node"]
	if len(node) == 0 {
		node = "usb-phy"
	}

	b, err := ioutil.ReadFile(dtb)
	if err != nil {
		return fmt.Errorf("%s: %v", dtb, err)
	}
	t := &fdt.Tree{IsLittleEndian: false}
	if err = t.Parse(b); err != nil {
		return fmt.Errorf("%s: %v", dtb, err)
	}

	// gpio pin map for the vbus supply, if any
	gpio.Aliases = make(gpio.GpioAliasMap)
	gpio.Pins = make(gpio.PinMap)
	t.MatchNode("aliases", fdtgpio.GatherAliases)
	t.EachProperty("gpio-controller", "", fdtgpio.GatherPins)

	phy, err := usb2phy.Probe(t, node)
	if err != nil {
		return err
	}
	defer phy.Close()

	if flag.ByName["-off"] {
		phy.Exit()
		return phy.PowerOff()
	}

	mode := usb2phy.OTG
	if s := parm.ByName["-mode"]; len(s) > 0 {
		if mode, err = usb2phy.ParseMode(s); err != nil {
			return err
		}
	}
	submode := 0
	if flag.ByName["-otg-init"] {
		submode = 1
	}

	phy.Init()
	if err = phy.PowerOn(); err != nil {
		return err
	}
	if err = phy.SetMode(mode, submode); err != nil {
		return err
	}

	if !flag.ByName["-quiet"] {
		s := phy.Status()
		fmt.Printf("%s: role: %v\n", phy.Name, s.Role)
		fmt.Printf("%s: session valid: %v\n", phy.Name, s.SessValid)
		fmt.Printf("%s: id pin: %v\n", phy.Name, s.IDDig)
		fmt.Printf("%s: driving vbus: %v\n", phy.Name, s.DrvVbus)
	}
	return nil
}
