//go:build avogen
// +build avogen

package main

import (
	. "github.com/mmcloughlin/avo/build"
	op "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// This file generates SSE2 zigzag encode/decode kernels for the zigzag step
// shotindex applies when a block's input turns out not to be sorted
// ascending (an unsorted caller into EncodeBlocks); shotindex itself uses its
// pure-Go zigzagEncode32/zigzagDecode32. ZigZag maps signed deltas to unsigned
// values so that small-magnitude deltas of either sign pack into few bits.
//
// Equivalent scalar form (https://lemire.me/blog/2022/11/25/making-all-your-integers-positive-with-zigzag-encoding/):
//
//	uint32_t encode(int32_t x) { return (uint32_t)(x << 1) ^ (uint32_t)(x >> 31); }
//	int32_t  decode(uint32_t x) { return (x >> 1) ^ -(x & 1); }

func genShotIndexZigZagEncodeKernel() {
	TEXT("shotIndexZigZagEncodeSIMDAsm", NOSPLIT, "func(buf *uint32, n int)")
	Doc("shotIndexZigZagEncodeSIMDAsm zigzag-encodes a slice of int32 deltas (stored as uint32) in place.")

	bufParam := Load(Param("buf"), GP64())
	bufPtr := bufParam.(reg.GPVirtual)
	n := Load(Param("n"), GP64())

	vecCount := GP64()
	MOVQ(n, vecCount)
	ANDQ(op.Imm(0xfffffffc), vecCount)

	tailCount := GP64()
	MOVQ(n, tailCount)
	ANDQ(op.Imm(3), tailCount)

	vecRemaining := GP64()
	MOVQ(vecCount, vecRemaining)

	vecLoop := "shotindex_zigzag_encode_vec_loop"
	vecDone := "shotindex_zigzag_encode_vec_done"

	valVec := XMM()
	signVec := XMM()
	shiftVec := XMM()

	Label(vecLoop)
	CMPQ(vecRemaining, op.Imm(0))
	JE(op.LabelRef(vecDone))

	MOVO(op.Mem{Base: bufPtr}, valVec)

	MOVO(valVec, signVec)
	PSRAL(op.Imm(31), signVec)

	MOVO(valVec, shiftVec)
	PSLLL(op.Imm(1), shiftVec)

	PXOR(signVec, shiftVec)

	MOVO(shiftVec, op.Mem{Base: bufPtr})

	ADDQ(op.Imm(16), bufPtr)
	SUBQ(op.Imm(4), vecRemaining)
	JMP(op.LabelRef(vecLoop))

	Label(vecDone)

	tailLoop := "shotindex_zigzag_encode_tail_loop"
	tailDone := "shotindex_zigzag_encode_tail_done"

	tailVal := GP32()
	tailSign := GP32()

	Label(tailLoop)
	CMPQ(tailCount, op.Imm(0))
	JE(op.LabelRef(tailDone))

	MOVL(op.Mem{Base: bufPtr}, tailVal)
	MOVL(tailVal, tailSign)
	SARL(op.Imm(31), tailSign)
	SHLL(op.Imm(1), tailVal)
	XORL(tailSign, tailVal)
	MOVL(tailVal, op.Mem{Base: bufPtr})

	ADDQ(op.Imm(4), bufPtr)
	DECQ(tailCount)
	JMP(op.LabelRef(tailLoop))

	Label(tailDone)
	RET()
}

func genShotIndexZigZagDecodeKernel() {
	TEXT("shotIndexZigZagDecodeSIMDAsm", NOSPLIT, "func(buf *uint32, n int)")
	Doc("shotIndexZigZagDecodeSIMDAsm decodes a slice of zigzag-encoded deltas in place.")

	bufParam := Load(Param("buf"), GP64())
	bufPtr := bufParam.(reg.GPVirtual)
	n := Load(Param("n"), GP64())

	vecCount := GP64()
	MOVQ(n, vecCount)
	ANDQ(op.Imm(0xfffffffc), vecCount)

	tailCount := GP64()
	MOVQ(n, tailCount)
	ANDQ(op.Imm(3), tailCount)

	vecRemaining := GP64()
	MOVQ(vecCount, vecRemaining)

	valVec := XMM()
	lsbVec := XMM()
	shiftVec := XMM()

	vecLoop := "shotindex_zigzag_decode_vec_loop"
	vecDone := "shotindex_zigzag_decode_vec_done"

	Label(vecLoop)
	CMPQ(vecRemaining, op.Imm(0))
	JE(op.LabelRef(vecDone))

	MOVO(op.Mem{Base: bufPtr}, valVec)

	MOVO(valVec, lsbVec)
	PSLLL(op.Imm(31), lsbVec)
	PSRAL(op.Imm(31), lsbVec)

	MOVO(valVec, shiftVec)
	PSRLL(op.Imm(1), shiftVec)

	PXOR(lsbVec, shiftVec)

	MOVO(shiftVec, op.Mem{Base: bufPtr})

	ADDQ(op.Imm(16), bufPtr)
	SUBQ(op.Imm(4), vecRemaining)
	JMP(op.LabelRef(vecLoop))

	Label(vecDone)

	tailLoop := "shotindex_zigzag_decode_tail_loop"
	tailDone := "shotindex_zigzag_decode_tail_done"

	tailVal := GP32()
	tailShift := GP32()
	tailMask := GP32()

	Label(tailLoop)
	CMPQ(tailCount, op.Imm(0))
	JE(op.LabelRef(tailDone))

	MOVL(op.Mem{Base: bufPtr}, tailVal)
	MOVL(tailVal, tailMask)
	ANDL(op.Imm(1), tailMask)
	NEGL(tailMask)

	MOVL(tailVal, tailShift)
	SHRL(op.Imm(1), tailShift)
	XORL(tailMask, tailShift)
	MOVL(tailShift, op.Mem{Base: bufPtr})

	ADDQ(op.Imm(4), bufPtr)
	DECQ(tailCount)
	JMP(op.LabelRef(tailLoop))

	Label(tailDone)
	RET()
}
