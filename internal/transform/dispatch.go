package transform

import (
	cf "bytegraft/internal/classfile"
)

//go:generate go tool stringer -type=Dispatch -trimprefix=Dispatch -output=dispatch_string.go

// Dispatch is the way a call site reaches its method.
type Dispatch int

const (
	DispatchStatic Dispatch = iota
	DispatchVirtual
	DispatchInterface
)

// callDispatch classifies an invoke opcode. invokespecial has no dispatch
// that can move to another class.
func callDispatch(op int) (Dispatch, bool) {
	switch op {
	case cf.INVOKESTATIC:
		return DispatchStatic, true
	case cf.INVOKEVIRTUAL:
		return DispatchVirtual, true
	case cf.INVOKEINTERFACE:
		return DispatchInterface, true
	default:
		return 0, false
	}
}

// handleDispatch classifies a method handle kind.
func handleDispatch(kind int) (Dispatch, bool) {
	switch kind {
	case cf.H_INVOKESTATIC:
		return DispatchStatic, true
	case cf.H_INVOKEVIRTUAL:
		return DispatchVirtual, true
	case cf.H_INVOKEINTERFACE:
		return DispatchInterface, true
	default:
		return 0, false
	}
}

// staticDesc returns the descriptor of the static method that replaces a
// call with dispatch d on owner. Instance calls gain the receiver as their
// first parameter.
func (d Dispatch) staticDesc(owner, desc string) string {
	if d == DispatchStatic {
		return desc
	}

	args := append([]cf.Type{cf.ObjectType(owner)}, cf.ArgumentTypes(desc)...)

	return cf.MethodDescriptor(cf.ReturnType(desc), args...)
}
