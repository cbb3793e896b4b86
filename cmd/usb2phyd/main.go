// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Usb2phyd brings up a usb2 phy and publishes its state to redis.
//
// Published fields:
//
//	usb2phy.mode
//	usb2phy.sessvld
//	usb2phy.iddig
//	usb2phy.vbus
//
// The mode field is settable:
//
//	hset platina usb2phy.mode host|device|otg
package main

import (
	"fmt"
	"io/ioutil"
	"net/rpc"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/fdt"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/gpio"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"

	"github.com/platinasystems/usb2phy"
	"github.com/platinasystems/usb2phy/internal/fdtgpio"
)

type Info struct {
	mutex sync.Mutex
	phy   *usb2phy.Phy
	pub   *publisher.Publisher
	rpc   *atsock.RpcServer
	lasts map[string]string
}

func main() {
	if err := run(os.Args[1:]...); err != nil {
		log.Print("daemon", "err", err)
		fmt.Fprintln(os.Stderr, "usb2phyd:", err)
		os.Exit(1)
	}
}

func run(args ...string) error {
	flag, args := flags.New(args, "-no-otg-init")
	parm, args := parms.New(args, "-dtb", "-node")
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

	if err := redis.IsReady(); err != nil {
		return err
	}

	b, err := ioutil.ReadFile(dtb)
	if err != nil {
		return fmt.Errorf("%s: %v", dtb, err)
	}
	t := &fdt.Tree{IsLittleEndian: false}
	if err = t.Parse(b); err != nil {
		return fmt.Errorf("%s: %v", dtb, err)
	}
	gpio.Aliases = make(gpio.GpioAliasMap)
	gpio.Pins = make(gpio.PinMap)
	t.MatchNode("aliases", fdtgpio.GatherAliases)
	t.EachProperty("gpio-controller", "", fdtgpio.GatherPins)

	phy, err := usb2phy.Probe(t, node)
	if err != nil {
		return err
	}
	defer phy.Close()

	phy.Init()
	if err = phy.PowerOn(); err != nil {
		return err
	}
	submode := 1
	if flag.ByName["-no-otg-init"] {
		submode = 0
	}
	if err = phy.SetMode(usb2phy.OTG, submode); err != nil {
		return err
	}
	log.Print("daemon", "info", phy.Name, ": up, role ",
		phy.Status().Role)

	i := &Info{phy: phy, lasts: make(map[string]string)}
	if i.pub, err = publisher.New(); err != nil {
		return err
	}
	if i.rpc, err = atsock.NewRpcServer("usb2phyd"); err != nil {
		return err
	}
	rpc.Register(i)
	err = redis.Assign(redis.DefaultHash+":usb2phy.", "usb2phyd",
		"Info")
	if err != nil {
		return err
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		i.update()
	}
	return nil
}

// update re-polls the role so an OTG cable swap takes effect, then
// publishes whatever status fields changed.
func (i *Info) update() {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if err := i.phy.SetMode(usb2phy.OTG, 0); err != nil {
		log.Print("daemon", "err", err)
		return
	}
	s := i.phy.Status()
	i.publish("usb2phy.mode", s.Role.String())
	i.publish("usb2phy.sessvld", fmt.Sprint(s.SessValid))
	i.publish("usb2phy.iddig", fmt.Sprint(s.IDDig))
	i.publish("usb2phy.vbus", fmt.Sprint(s.DrvVbus))
}

func (i *Info) publish(key, value string) {
	if i.lasts[key] != value {
		i.pub.Print(key, ": ", value)
		i.lasts[key] = value
	}
}

func (i *Info) Hset(a args.Hset, r *reply.Hset) error {
	field := strings.TrimPrefix(a.Field, "usb2phy.")
	if field != "mode" {
		return fmt.Errorf("cannot hset: %s", a.Field)
	}
	mode, err := usb2phy.ParseMode(string(a.Value))
	if err != nil {
		return err
	}
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if err = i.phy.SetMode(mode, 0); err != nil {
		return err
	}
	*r = 1
	return nil
}
