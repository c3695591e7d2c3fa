//go:build arm64

package ctx

import "unsafe"

// MinStackSize is the smallest stack buffer Make will accept.
const MinStackSize = 4096

// savedFrameSize is the number of zeroed register-slot bytes below the
// resumption address: x19-x28 and the frame pointer x29, per AAPCS64's
// callee-saved set (11 registers, 88 bytes). The link register occupies
// the 12th slot immediately above this, holding the resume address rather
// than a zeroed register — see makeContext.
const savedFrameSize = 11 * 8

// frameSize is the total stack space swtch/setctx reserve: the 11 zeroed
// register slots plus the link-register/resume-address slot.
const frameSize = 12 * 8

// swtch and setctx are implemented in context_arm64.s.
func swtch(from, to *Context)
func setctx(to *Context)

// makeContext builds the initial frame swtch/setctx expect: 11 zeroed
// callee-saved register slots (x19-x28, x29), then the entry address in
// the slot swtch/setctx restore into the link register.
func makeContext(ctxt *Context, stack []byte, entry func()) {
	top := stackTop(stack)
	top &^= 15 // 16-byte align per AAPCS64

	frame := top - frameSize
	for i := uintptr(0); i < savedFrameSize; i += 8 {
		*(*uintptr)(unsafe.Pointer(frame + i)) = 0
	}

	*(*uintptr)(unsafe.Pointer(frame + savedFrameSize)) = funcPC(entry)
	ctxt.sp = frame
}

// funcPC extracts the entry address of a non-capturing Go function value.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}
