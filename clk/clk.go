// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package clk models the reference clocks consumed by device drivers.
//
// Two providers are supported: fixed-clock nodes, which are always running,
// and module-stop style gate clocks where a bit in a stop-control register
// holds the module clock off until cleared.
package clk

import (
	"fmt"
	"io"
	"time"

	"github.com/platinasystems/fdt"

	"github.com/platinasystems/usb2phy/internal/fdtutil"
	"github.com/platinasystems/usb2phy/regio"
)

type Clock interface {
	Enable() error
	Disable() error
}

// OpenMem maps a clock controller register block. Tests substitute a
// register file.
var OpenMem = func(base uintptr, size int) (regio.Mem, error) {
	return regio.Open(base, size)
}

// Fixed is an always running clock.
type Fixed struct {
	Name string
}

func (Fixed) Enable() error  { return nil }
func (Fixed) Disable() error { return nil }

// Gate is one bit of a stop-control register. The bit set holds the module
// clock stopped; Enable clears it and waits for the readback to agree.
type Gate struct {
	Name string
	mem  regio.Mem
	ctrl uint32
	bit  uint
}

func NewGate(name string, mem regio.Mem, ctrl uint32, bit uint) *Gate {
	return &Gate{Name: name, mem: mem, ctrl: ctrl, bit: bit}
}

func (g *Gate) Enable() error {
	regio.ClrBits32(g.mem, g.ctrl, 1<<g.bit)
	for i := 0; i < 100; i++ {
		if g.mem.Read32(g.ctrl)&(1<<g.bit) == 0 {
			return nil
		}
		time.Sleep(10 * time.Microsecond)
	}
	return fmt.Errorf("%s: won't start", g.Name)
}

func (g *Gate) Disable() error {
	regio.SetBits32(g.mem, g.ctrl, 1<<g.bit)
	return nil
}

// Close unmaps the controller block.
func (g *Gate) Close() error {
	if c, ok := g.mem.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FromNode resolves the indexed entry of the node's "clocks" property
// against its provider node.
func FromNode(t *fdt.Tree, n *fdt.Node, index int) (Clock, error) {
	p, found := n.Properties["clocks"]
	if !found {
		return nil, fmt.Errorf("%s: no clocks property", n.Name)
	}
	cells := t.PropUint32Slice(p)
	for pos, i := 0, 0; pos < len(cells); i++ {
		provider := fdtutil.NodeByPhandle(t, cells[pos])
		if provider == nil {
			return nil, fmt.Errorf("%s: clock %d: bad phandle 0x%x",
				n.Name, i, cells[pos])
		}
		nc, found := fdtutil.PropU32(t, provider, "#clock-cells")
		if !found {
			return nil, fmt.Errorf("%s: no #clock-cells",
				provider.Name)
		}
		if pos+1+int(nc) > len(cells) {
			return nil, fmt.Errorf("%s: truncated clocks property",
				n.Name)
		}
		if i == index {
			return fromProvider(t, provider,
				cells[pos+1:pos+1+int(nc)])
		}
		pos += 1 + int(nc)
	}
	return nil, fmt.Errorf("%s: no clock %d", n.Name, index)
}

func fromProvider(t *fdt.Tree, provider *fdt.Node, args []uint32) (Clock, error) {
	name, found := fdtutil.PropString(provider, "clock-output-names")
	if !found {
		name = provider.Name
	}
	if fdtutil.IsCompatible(t, provider, "fixed-clock") {
		return Fixed{Name: name}, nil
	}
	// gate clock, cells are <ctrl-offset bit>
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: can't parse %d cell gate clock",
			provider.Name, len(args))
	}
	base, size, err := fdtutil.Reg(t, provider)
	if err != nil {
		return nil, err
	}
	mem, err := OpenMem(uintptr(base), size)
	if err != nil {
		return nil, err
	}
	return NewGate(name, mem, args[0], uint(args[1])), nil
}
