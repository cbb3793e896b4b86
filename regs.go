// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package usb2phy

// USB2.0 host register offsets (original offset is +0x200).
const (
	INT_ENABLE     = 0x000
	USBCTR         = 0x00c
	SPD_RSM_TIMSET = 0x10c
	OC_TIMSET      = 0x110
	COMMCTRL       = 0x600
	OBINTSTA       = 0x604
	OBINTEN        = 0x608
	VBCTRL         = 0x60c
	LINECTRL1      = 0x610
	ADPCTRL        = 0x630
)

// INT_ENABLE
const (
	INT_ENABLE_UCOM_INTEN   = 1 << 3
	INT_ENABLE_USBH_INTB_EN = 1 << 2
	INT_ENABLE_USBH_INTA_EN = 1 << 1
)

// USBCTR
const USBCTR_PLL_RST = 1 << 1

// Timing registers hold calibration values from the datasheet, programmed
// verbatim at init.
const (
	SPD_RSM_TIMSET_INIT = 0x014e029b
	OC_TIMSET_INIT      = 0x000209ab
)

// COMMCTRL
const COMMCTRL_OTG_PERI = 1 << 31 // 1 = Peripheral mode

// OBINTSTA and OBINTEN
const (
	OBINT_SESSVLDCHG = 1 << 12
	OBINT_IDDIGCHG   = 1 << 11
)

// VBCTRL
const VBCTRL_DRVVBUSSEL = 1 << 8

// LINECTRL1
const (
	LINECTRL1_DPRPD_EN = 1 << 19
	LINECTRL1_DP_RPD   = 1 << 18
	LINECTRL1_DMRPD_EN = 1 << 17
	LINECTRL1_DM_RPD   = 1 << 16
)

// ADPCTRL
const (
	ADPCTRL_OTGSESSVLD = 1 << 20
	ADPCTRL_IDDIG      = 1 << 19
	ADPCTRL_IDPULLUP   = 1 << 5 // 1 = ID sampling is enabled
	ADPCTRL_DRVVBUS    = 1 << 4
)
