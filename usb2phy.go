// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package usb2phy brings up the USB 2.0 phy block of R-Car Gen3 SoCs: it
// enables the reference clock, programs host, peripheral, or OTG role, and
// switches VBUS through an optional supply regulator.
//
// Operations on a Phy are plain register sequences with no locking; a
// caller driving one Phy from several goroutines must serialize.
package usb2phy

import (
	"errors"
	"fmt"
	"io"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/log"

	"github.com/platinasystems/usb2phy/clk"
	"github.com/platinasystems/usb2phy/internal/fdtutil"
	"github.com/platinasystems/usb2phy/regio"
	"github.com/platinasystems/usb2phy/regulator"
)

var (
	ErrConfig      = errors.New("config error")
	ErrClock       = errors.New("clock error")
	ErrPower       = errors.New("power error")
	ErrInvalidMode = errors.New("invalid mode")
)

type Mode int

const (
	HOST Mode = iota
	DEVICE
	OTG
)

func (m Mode) String() string {
	switch m {
	case HOST:
		return "host"
	case DEVICE:
		return "device"
	case OTG:
		return "otg"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "host":
		return HOST, nil
	case "device", "peripheral":
		return DEVICE, nil
	case "otg":
		return OTG, nil
	}
	return HOST, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// openMem maps the phy register block; tests substitute a register file.
var openMem = func(base uintptr, size int) (regio.Mem, error) {
	return regio.Open(base, size)
}

// Phy is one bound usb2 phy block. The register block is exclusively
// owned from Probe until Close.
type Phy struct {
	Name string
	mem  regio.Mem
	clk  clk.Clock
	vbus regulator.Regulator
}

// Probe binds the named device tree node: maps its register block,
// resolves the optional vbus supply, and enables reference clock 0. On
// any failure nothing is left mapped or running.
func Probe(t *fdt.Tree, name string) (*Phy, error) {
	n := fdtutil.FindNode(t, name)
	if n == nil {
		return nil, fmt.Errorf("%w: no node %s", ErrConfig, name)
	}
	base, size, err := fdtutil.Reg(t, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	vbus, err := regulator.FromProperty(t, n, "vbus-supply")
	if err != nil {
		log.Print("err", "failed to get phy regulator: ", err)
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	ck, err := clk.FromNode(t, n, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClock, err)
	}
	mem, err := openMem(uintptr(base), size)
	if err != nil {
		closeQuietly(ck)
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err = ck.Enable(); err != nil {
		closeQuietly(mem)
		closeQuietly(ck)
		return nil, fmt.Errorf("%w: %v", ErrClock, err)
	}
	p := &Phy{Name: n.Name, mem: mem, clk: ck}
	if vbus != nil {
		p.vbus = vbus
	}
	return p, nil
}

func closeQuietly(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		c.Close()
	}
}

// Close disables the reference clock and unmaps the register block. Safe
// on an already closed or never probed Phy.
func (p *Phy) Close() error {
	if p.clk != nil {
		p.clk.Disable()
		closeQuietly(p.clk)
		p.clk = nil
	}
	if p.mem != nil {
		closeQuietly(p.mem)
		p.mem = nil
	}
	return nil
}

// Init masks all phy interrupts and programs the fixed speed/resume and
// over-current timing calibration.
func (p *Phy) Init() {
	p.mem.Write32(INT_ENABLE, 0)
	p.mem.Write32(SPD_RSM_TIMSET, SPD_RSM_TIMSET_INIT)
	p.mem.Write32(OC_TIMSET, OC_TIMSET_INIT)
}

// Exit masks all phy interrupts.
func (p *Phy) Exit() {
	p.mem.Write32(INT_ENABLE, 0)
}

// PowerOn raises the vbus supply, if there is one, then pulses the PLL
// reset. The supply must be up before the reset pulse, so a supply
// failure aborts with the registers untouched.
func (p *Phy) PowerOn() error {
	if p.vbus != nil {
		if err := p.vbus.Enable(); err != nil {
			return fmt.Errorf("%w: %v", ErrPower, err)
		}
	}
	regio.SetBits32(p.mem, USBCTR, USBCTR_PLL_RST)
	regio.ClrBits32(p.mem, USBCTR, USBCTR_PLL_RST)
	return nil
}

// PowerOff drops the vbus supply. Without one it succeeds doing nothing.
func (p *Phy) PowerOff() error {
	if p.vbus == nil {
		return nil
	}
	if err := p.vbus.Disable(); err != nil {
		return fmt.Errorf("%w: %v", ErrPower, err)
	}
	return nil
}

// otgInit arms OTG detection: unmasks the session-valid and id-pin change
// interrupts, enables ID pull-up sampling, and puts both line pull-downs
// under detector control.
func (p *Phy) otgInit() {
	p.mem.Write32(INT_ENABLE, INT_ENABLE_UCOM_INTEN|
		INT_ENABLE_USBH_INTB_EN|INT_ENABLE_USBH_INTA_EN)
	regio.SetBits32(p.mem, VBCTRL, VBCTRL_DRVVBUSSEL)
	p.mem.Write32(OBINTSTA, OBINT_SESSVLDCHG|OBINT_IDDIGCHG)
	regio.SetBits32(p.mem, OBINTEN, OBINT_SESSVLDCHG|OBINT_IDDIGCHG)
	regio.SetBits32(p.mem, ADPCTRL, ADPCTRL_IDPULLUP)
	regio.ClrSetBits32(p.mem, LINECTRL1,
		LINECTRL1_DP_RPD|LINECTRL1_DM_RPD|
			LINECTRL1_DPRPD_EN|LINECTRL1_DMRPD_EN,
		LINECTRL1_DPRPD_EN|LINECTRL1_DMRPD_EN)
}

// SetMode programs the phy role. OTG resolves to host or device from the
// ID pin and session-valid status sampled now; a non-zero submode first
// runs the one-time OTG arming sequence. Register updates preserve
// unrelated bits.
func (p *Phy) SetMode(mode Mode, submode int) error {
	const adpdevmask = ADPCTRL_IDDIG | ADPCTRL_OTGSESSVLD

	if mode == OTG {
		if submode != 0 {
			p.otgInit()
		}
		if p.mem.Read32(ADPCTRL)&adpdevmask == adpdevmask {
			mode = DEVICE
		} else {
			mode = HOST
		}
	}

	switch mode {
	case HOST:
		regio.ClrBits32(p.mem, COMMCTRL, COMMCTRL_OTG_PERI)
		regio.SetBits32(p.mem, LINECTRL1,
			LINECTRL1_DP_RPD|LINECTRL1_DM_RPD)
		regio.SetBits32(p.mem, ADPCTRL, ADPCTRL_DRVVBUS)
	case DEVICE:
		regio.SetBits32(p.mem, COMMCTRL, COMMCTRL_OTG_PERI)
		regio.ClrSetBits32(p.mem, LINECTRL1,
			LINECTRL1_DP_RPD|LINECTRL1_DM_RPD, LINECTRL1_DM_RPD)
		regio.ClrBits32(p.mem, ADPCTRL, ADPCTRL_DRVVBUS)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	return nil
}

// Status is the phy state sampled from the status registers.
type Status struct {
	Role      Mode // role currently programmed
	SessValid bool // OTG session valid
	IDDig     bool // ID pin digital value, 1 = device cable end
	DrvVbus   bool // phy is driving VBUS
}

func (p *Phy) Status() Status {
	adp := p.mem.Read32(ADPCTRL)
	var s Status
	if p.mem.Read32(COMMCTRL)&COMMCTRL_OTG_PERI != 0 {
		s.Role = DEVICE
	}
	s.SessValid = adp&ADPCTRL_OTGSESSVLD != 0
	s.IDDig = adp&ADPCTRL_IDDIG != 0
	s.DrvVbus = adp&ADPCTRL_DRVVBUS != 0
	return s
}
