// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package regio provides 32-bit access to memory mapped device registers.
//
// Drivers take the Mem interface so unit tests may substitute a register
// file; on target the DevMem implementation maps the block from /dev/mem.
package regio

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const devmem = "/dev/mem"

type Mem interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// SetBits32 sets mask bits, preserving the rest of the register.
func SetBits32(m Mem, off, mask uint32) {
	m.Write32(off, m.Read32(off)|mask)
}

// ClrBits32 clears mask bits, preserving the rest of the register.
func ClrBits32(m Mem, off, mask uint32) {
	m.Write32(off, m.Read32(off)&^mask)
}

// ClrSetBits32 clears clr then sets set in a single read-modify-write.
func ClrSetBits32(m Mem, off, clr, set uint32) {
	m.Write32(off, m.Read32(off)&^clr|set)
}

// DevMem is a register block mapped from /dev/mem.
type DevMem struct {
	f   *os.File
	buf []byte
	off int // offset of the block within the page aligned mapping
}

func Open(base uintptr, size int) (*DevMem, error) {
	f, err := os.OpenFile(devmem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", devmem, err)
	}
	pg := uintptr(syscall.Getpagesize())
	aligned := base &^ (pg - 1)
	skew := int(base - aligned)
	buf, err := syscall.Mmap(int(f.Fd()), int64(aligned), skew+size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: mmap 0x%x: %v", devmem, base, err)
	}
	return &DevMem{f: f, buf: buf, off: skew}, nil
}

func (m *DevMem) Read32(off uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(&m.buf[m.off+int(off)]))
}

func (m *DevMem) Write32(off uint32, v uint32) {
	*(*uint32)(unsafe.Pointer(&m.buf[m.off+int(off)])) = v
}

// Close unmaps the block. Safe to call more than once.
func (m *DevMem) Close() error {
	if m.buf != nil {
		syscall.Munmap(m.buf)
		m.buf = nil
	}
	if m.f != nil {
		m.f.Close()
		m.f = nil
	}
	return nil
}
