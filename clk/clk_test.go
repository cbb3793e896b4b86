// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package clk

import (
	"encoding/binary"
	"testing"

	"github.com/platinasystems/fdt"

	"github.com/platinasystems/usb2phy/regio"
)

type regfile map[uint32]uint32

func (r regfile) Read32(off uint32) uint32     { return r[off] }
func (r regfile) Write32(off uint32, v uint32) { r[off] = v }

// stuck ignores writes, so a gate bit never clears.
type stuck map[uint32]uint32

func (s stuck) Read32(off uint32) uint32 { return s[off] }
func (s stuck) Write32(off, v uint32)    {}

func be32(vals ...uint32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(b[4*i:], v)
	}
	return b
}

func TestGate(t *testing.T) {
	r := regfile{0x14c: 0xffffffff}
	g := NewGate("usb2", r, 0x14c, 4)
	if err := g.Enable(); err != nil {
		t.Fatal(err)
	}
	if got, want := r[0x14c], uint32(0xffffffef); got != want {
		t.Errorf("enable: got 0x%x want 0x%x", got, want)
	}
	if err := g.Disable(); err != nil {
		t.Fatal(err)
	}
	if got, want := r[0x14c], uint32(0xffffffff); got != want {
		t.Errorf("disable: got 0x%x want 0x%x", got, want)
	}
}

func TestGateStuck(t *testing.T) {
	g := NewGate("usb2", stuck{0x14c: 1 << 4}, 0x14c, 4)
	if err := g.Enable(); err == nil {
		t.Error("stuck gate: no error")
	}
}

func clockTree() *fdt.Tree {
	return &fdt.Tree{
		RootNode: &fdt.Node{
			Name: "/",
			Children: map[string]*fdt.Node{
				"extal": &fdt.Node{
					Name: "extal",
					Properties: map[string][]byte{
						"compatible":   []byte("fixed-clock\x00"),
						"#clock-cells": be32(0),
						"phandle":      be32(1),
					},
				},
				"cpg": &fdt.Node{
					Name: "cpg@e6150000",
					Properties: map[string][]byte{
						"compatible":   []byte("renesas,cpg-mstp-clocks\x00"),
						"#clock-cells": be32(2),
						"reg":          be32(0xe6150000, 0x1000),
						"phandle":      be32(2),
					},
				},
				"phy": &fdt.Node{
					Name: "phy@ee080200",
					Properties: map[string][]byte{
						// gate <cpg SMSTPCR7 2>, then extal
						"clocks": be32(2, 0x14c, 2, 1),
					},
				},
			},
		},
	}
}

func TestFromNode(t *testing.T) {
	r := regfile{0x14c: 1 << 2}
	defer func(f func(uintptr, int) (regio.Mem, error)) {
		OpenMem = f
	}(OpenMem)
	OpenMem = func(base uintptr, size int) (regio.Mem, error) {
		if base != 0xe6150000 {
			t.Errorf("mapped 0x%x want 0xe6150000", base)
		}
		return r, nil
	}

	ft := clockTree()
	phy := ft.RootNode.Children["phy"]

	ck, err := FromNode(ft, phy, 0)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := ck.(*Gate)
	if !ok {
		t.Fatalf("clock 0: got %T want *Gate", ck)
	}
	if err = g.Enable(); err != nil {
		t.Fatal(err)
	}
	if got, want := r[0x14c], uint32(0); got != want {
		t.Errorf("got 0x%x want 0x%x", got, want)
	}

	ck, err = FromNode(ft, phy, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok = ck.(Fixed); !ok {
		t.Errorf("clock 1: got %T want Fixed", ck)
	}

	if _, err = FromNode(ft, phy, 2); err == nil {
		t.Error("clock 2: no error")
	}
}
