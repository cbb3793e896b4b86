// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package regulator

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
)

type fakePin struct {
	values []bool
	err    error
}

func (p *fakePin) SetValue(v bool) error {
	p.values = append(p.values, v)
	return p.err
}

func be32(vals ...uint32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(b[4*i:], v)
	}
	return b
}

func TestFixedActiveHigh(t *testing.T) {
	pin := &fakePin{}
	r := &Fixed{Name: "vbus", Pin: pin, ActiveHigh: true}
	if err := r.Enable(); err != nil {
		t.Fatal(err)
	}
	if err := r.Disable(); err != nil {
		t.Fatal(err)
	}
	if got, want := len(pin.values), 2; got != want {
		t.Fatalf("got %d writes want %d", got, want)
	}
	if !pin.values[0] || pin.values[1] {
		t.Errorf("got %v want [true false]", pin.values)
	}
}

func TestFixedActiveLow(t *testing.T) {
	pin := &fakePin{}
	r := &Fixed{Name: "vbus", Pin: pin}
	if err := r.Enable(); err != nil {
		t.Fatal(err)
	}
	if len(pin.values) != 1 || pin.values[0] {
		t.Errorf("got %v want [false]", pin.values)
	}
}

func TestFixedPinError(t *testing.T) {
	pin := &fakePin{err: errors.New("no such pin")}
	r := &Fixed{Name: "vbus", Pin: pin, ActiveHigh: true}
	if err := r.Enable(); err == nil {
		t.Error("enable: no error")
	}
	if err := r.Disable(); err == nil {
		t.Error("disable: no error")
	}
}

func supplyTree() *fdt.Tree {
	return &fdt.Tree{
		RootNode: &fdt.Node{
			Name: "/",
			Children: map[string]*fdt.Node{
				"regulator-vbus0": &fdt.Node{
					Name: "regulator-vbus0",
					Properties: map[string][]byte{
						"compatible":         []byte("regulator-fixed\x00"),
						"regulator-name":     []byte("USB20_VBUS0\x00"),
						"gpio":               []byte("USB0_PWEN\x00"),
						"enable-active-high": {},
						"startup-delay-us":   be32(2000),
						"phandle":            be32(9),
					},
				},
				"phy": &fdt.Node{
					Name: "phy@ee080200",
					Properties: map[string][]byte{
						"vbus-supply": be32(9),
					},
				},
			},
		},
	}
}

func TestFromProperty(t *testing.T) {
	gpio.Pins = make(gpio.PinMap)
	gpio.Pins["USB0_PWEN"] = gpio.Pin(4)

	ft := supplyTree()
	phy := ft.RootNode.Children["phy"]

	r, err := FromProperty(ft, phy, "vbus-supply")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.Name, "USB20_VBUS0"; got != want {
		t.Errorf("name: got %s want %s", got, want)
	}
	if !r.ActiveHigh {
		t.Error("not active high")
	}
	if got, want := r.StartupDelay, 2*time.Millisecond; got != want {
		t.Errorf("delay: got %v want %v", got, want)
	}
}

func TestFromPropertyAbsent(t *testing.T) {
	ft := supplyTree()
	phy := ft.RootNode.Children["phy"]
	delete(phy.Properties, "vbus-supply")

	r, err := FromProperty(ft, phy, "vbus-supply")
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Errorf("got %v want nil", r)
	}
}

func TestFromPropertyBadPhandle(t *testing.T) {
	ft := supplyTree()
	phy := ft.RootNode.Children["phy"]
	phy.Properties["vbus-supply"] = be32(10)

	if _, err := FromProperty(ft, phy, "vbus-supply"); err == nil {
		t.Error("bad phandle: no error")
	}
}

func TestFromNodeNoPin(t *testing.T) {
	gpio.Pins = make(gpio.PinMap)

	ft := supplyTree()
	sn := ft.RootNode.Children["regulator-vbus0"]
	if _, err := FromNode(ft, sn); err == nil {
		t.Error("missing pin: no error")
	}
}
