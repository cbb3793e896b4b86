// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtutil has the flattened device tree lookups shared by the phy
// driver and its clock and regulator bindings.
package fdtutil

import (
	"fmt"
	"strings"

	"github.com/platinasystems/fdt"
)

// FindNode returns the first node whose name matches, either exactly or,
// when the tree name carries a unit address ("phy@ee080200"), by the part
// before the '@'.
func FindNode(t *fdt.Tree, name string) *fdt.Node {
	return findNode(t.RootNode, name)
}

func findNode(n *fdt.Node, name string) *fdt.Node {
	if n == nil {
		return nil
	}
	if n.Name == name || strings.SplitN(n.Name, "@", 2)[0] == name {
		return n
	}
	for _, c := range n.Children {
		if f := findNode(c, name); f != nil {
			return f
		}
	}
	return nil
}

// NodeByPhandle returns the node carrying the given phandle, or nil.
func NodeByPhandle(t *fdt.Tree, ph uint32) *fdt.Node {
	return nodeByPhandle(t, t.RootNode, ph)
}

func nodeByPhandle(t *fdt.Tree, n *fdt.Node, ph uint32) *fdt.Node {
	if n == nil {
		return nil
	}
	for _, name := range []string{"phandle", "linux,phandle"} {
		if p, found := n.Properties[name]; found && len(p) == 4 {
			if t.PropUint32(p) == ph {
				return n
			}
		}
	}
	for _, c := range n.Children {
		if f := nodeByPhandle(t, c, ph); f != nil {
			return f
		}
	}
	return nil
}

// Reg parses the node's "reg" property as one <address size> pair with
// either one or two cells per value.
func Reg(t *fdt.Tree, n *fdt.Node) (base uint64, size int, err error) {
	p, found := n.Properties["reg"]
	if !found {
		return 0, 0, fmt.Errorf("%s: no reg property", n.Name)
	}
	cells := t.PropUint32Slice(p)
	switch len(cells) {
	case 2:
		base = uint64(cells[0])
		size = int(cells[1])
	case 4:
		base = uint64(cells[0])<<32 | uint64(cells[1])
		size = int(uint64(cells[2])<<32 | uint64(cells[3]))
	default:
		return 0, 0, fmt.Errorf("%s: can't parse %d cell reg",
			n.Name, len(cells))
	}
	if size <= 0 {
		return 0, 0, fmt.Errorf("%s: zero size reg", n.Name)
	}
	return base, size, nil
}

// PropU32 parses a single cell property.
func PropU32(t *fdt.Tree, n *fdt.Node, name string) (uint32, bool) {
	p, found := n.Properties[name]
	if !found || len(p) != 4 {
		return 0, false
	}
	return t.PropUint32(p), true
}

// PropString parses a string property, dropping the NUL terminator.
func PropString(n *fdt.Node, name string) (string, bool) {
	p, found := n.Properties[name]
	if !found {
		return "", false
	}
	return strings.TrimRight(string(p), "\x00"), true
}

// HasProp reports presence of a boolean (empty) property.
func HasProp(n *fdt.Node, name string) bool {
	_, found := n.Properties[name]
	return found
}

// IsCompatible reports whether the compatible string list contains s.
func IsCompatible(t *fdt.Tree, n *fdt.Node, s string) bool {
	p, found := n.Properties["compatible"]
	if !found {
		return false
	}
	for _, c := range t.PropStringSlice(p) {
		if c == s {
			return true
		}
	}
	return false
}
