package semihost

import "github.com/arm-cm/cmsim/bus"

const maxStringLen = 4096

// Dispatch reads the parameter block for callNumber from mem at r1
// (or, for SysException, treats r1 as the reason value directly —
// the ARM semihosting convention passes it inline in R1 rather than through
// a pointer), builds the typed Request, invokes h, and writes any
// host-produced bytes back through mem before returning the R0 result.
func Dispatch(h Handler, mem bus.Bus, callNumber, r1 uint32) (result uint32, exit bool, err error) {
	switch callNumber {
	case SysOpenCall:
		nameAddr, err1 := mem.Read32(r1)
		mode, err2 := mem.Read32(r1 + 4)
		length, err3 := mem.Read32(r1 + 8)
		if err := firstErr(err1, err2, err3); err != nil {
			return 0, false, err
		}
		name, err := readString(mem, nameAddr, length)
		if err != nil {
			return 0, false, err
		}
		resp := h.Handle(SysOpen{Name: name, Mode: mode, Len: length})
		return Result(callNumber, resp), false, nil

	case SysCloseCall:
		handle, err := mem.Read32(r1)
		if err != nil {
			return 0, false, err
		}
		resp := h.Handle(SysClose{Handle: handle})
		return Result(callNumber, resp), false, nil

	case SysWriteCall:
		handle, err1 := mem.Read32(r1)
		bufAddr, err2 := mem.Read32(r1 + 4)
		length, err3 := mem.Read32(r1 + 8)
		if err := firstErr(err1, err2, err3); err != nil {
			return 0, false, err
		}
		data, err := readBytes(mem, bufAddr, length)
		if err != nil {
			return 0, false, err
		}
		resp := h.Handle(SysWrite{Handle: handle, Data: data})
		return Result(callNumber, resp), false, nil

	case SysReadCall:
		handle, err1 := mem.Read32(r1)
		bufAddr, err2 := mem.Read32(r1 + 4)
		length, err3 := mem.Read32(r1 + 8)
		if err := firstErr(err1, err2, err3); err != nil {
			return 0, false, err
		}
		resp := h.Handle(SysRead{Handle: handle, Len: length})
		for i, b := range resp.Data {
			if err := mem.Write8(bufAddr+uint32(i), b); err != nil {
				return 0, false, err
			}
		}
		notRead := length - uint32(len(resp.Data))
		return notRead, false, nil

	case SysClockCall:
		resp := h.Handle(SysClock{})
		return Result(callNumber, resp), false, nil

	case SysExceptionCall:
		resp := h.Handle(SysException{Reason: r1})
		return Result(callNumber, resp), resp.Stop, nil

	default:
		return 0, false, &UnknownCallError{Call: callNumber}
	}
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func readBytes(mem bus.Bus, addr, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	for i := range buf {
		b, err := mem.Read8(addr + uint32(i))
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

func readString(mem bus.Bus, addr, length uint32) (string, error) {
	if length > maxStringLen {
		length = maxStringLen
	}
	buf, err := readBytes(mem, addr, length)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
