//go:build avogen
// +build avogen

package main

import (
	. "github.com/mmcloughlin/avo/build"
	op "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// This file generates SSE2 delta encode/decode kernels for shotindex's block
// codec on amd64. shotindex does not call them: its deltaEncode/deltaDecode
// are pure Go.
//
// The encoder implements straight D1 differential coding (δi = xi − xi−1),
// vectorized with SSE2 as suggested by [1]. The decoder follows the
// "shift-and-add" SIMD prefix-sum tree: repeated byte shifts (PSLLDQ) and
// packed additions (PADDL) compute inclusive scans four indices at a time.
//
// [1] D. Lemire, L. Boytsov, and N. Kurz (2016): "SIMD compression and the intersection of sorted integers",
// Software: Practice and Experience, vol. 46, no. 6, pp. 723–749, 2016, doi: 10.1002/spe.2326.

func genShotIndexDeltaEncodeKernel() {
	TEXT("shotIndexDeltaEncodeSIMDAsm", NOSPLIT, "func(dst *uint32, src *uint32, n int) uint32")
	Doc("shotIndexDeltaEncodeSIMDAsm delta-encodes a slice of sorted shot indices (D1).")
	Doc("It returns a mask with bits set wherever a delta came out negative, so the")
	Doc("caller knows to fall back to zigzag encoding for that block.")
	Doc("n must be >= 0.")

	dstParam := Load(Param("dst"), GP64())
	dstBase := dstParam.(reg.GPVirtual)
	srcParam := Load(Param("src"), GP64())
	srcBase := srcParam.(reg.GPVirtual)
	n := Load(Param("n"), GP64())

	vecLimit := GP64()
	MOVQ(n, vecLimit)
	ANDQ(op.Imm(0xfffffffc), vecLimit)

	index := GP64()
	XORQ(index, index)

	prevScalar := GP32()
	XORL(prevScalar, prevScalar)

	prevVec := XMM()
	PXOR(prevVec, prevVec)

	maskAcc := XMM()
	PXOR(maskAcc, maskAcc)

	tailFlag := GP32()
	XORL(tailFlag, tailFlag)

	maskBits := GP32()
	XORL(maskBits, maskBits)

	curr := XMM()
	currCopy := XMM()
	shifted := XMM()
	prevAligned := XMM()
	diff := XMM()
	cmpVec := XMM()

	vecLoop := "shotindex_delta_encode_vec_loop"
	vecDone := "shotindex_delta_encode_vec_done"

	Label(vecLoop)
	CMPQ(index, vecLimit)
	JAE(op.LabelRef(vecDone))

	blockSrc := op.Mem{Base: srcBase, Index: index, Scale: 4}
	blockDst := op.Mem{Base: dstBase, Index: index, Scale: 4}

	MOVO(blockSrc, curr)
	MOVO(curr, currCopy)

	MOVO(currCopy, shifted)
	PSLLDQ(op.Imm(4), shifted)

	MOVO(shifted, prevAligned)
	POR(prevVec, prevAligned)

	MOVO(currCopy, diff)
	PSUBL(prevAligned, diff)
	MOVO(diff, blockDst)

	MOVO(prevAligned, cmpVec)
	PCMPGTL(currCopy, cmpVec)
	POR(cmpVec, maskAcc)

	lastSrc := op.Mem{Base: srcBase, Index: index, Scale: 4, Disp: 12}
	MOVD(lastSrc, prevVec)
	MOVL(lastSrc, prevScalar)

	ADDQ(op.Imm(4), index)
	JMP(op.LabelRef(vecLoop))

	Label(vecDone)
	MOVMSKPS(maskAcc, maskBits)

	tailLoop := "shotindex_delta_encode_tail_loop"
	tailDone := "shotindex_delta_encode_tail_done"
	tailSkip := "shotindex_delta_encode_tail_skip"

	tailSrcVal := GP32()
	tailDiff := GP32()

	Label(tailLoop)
	CMPQ(index, n)
	JAE(op.LabelRef(tailDone))

	elemSrc := op.Mem{Base: srcBase, Index: index, Scale: 4}
	elemDst := op.Mem{Base: dstBase, Index: index, Scale: 4}

	MOVL(elemSrc, tailSrcVal)
	MOVL(tailSrcVal, tailDiff)
	SUBL(prevScalar, tailDiff)
	MOVL(tailDiff, elemDst)

	CMPL(tailSrcVal, prevScalar)
	JAE(op.LabelRef(tailSkip))
	INCL(tailFlag)
	Label(tailSkip)

	MOVL(tailSrcVal, prevScalar)
	ADDQ(op.Imm(1), index)
	JMP(op.LabelRef(tailLoop))

	Label(tailDone)
	ORL(tailFlag, maskBits)
	Store(maskBits.As32(), ReturnIndex(0))
	RET()
}

func genShotIndexDeltaDecodeKernel() {
	TEXT("shotIndexDeltaDecodeSIMDAsm", NOSPLIT, "func(dst *uint32, src *uint32, n int)")
	Doc("shotIndexDeltaDecodeSIMDAsm reconstructs shot indices from deltas via prefix sum.")

	dstParam := Load(Param("dst"), GP64())
	dstBase := dstParam.(reg.GPVirtual)
	srcParam := Load(Param("src"), GP64())
	srcBase := srcParam.(reg.GPVirtual)
	n := Load(Param("n"), GP64())

	vecLimit := GP64()
	MOVQ(n, vecLimit)
	ANDQ(op.Imm(0xfffffffc), vecLimit)

	index := GP64()
	XORQ(index, index)

	prevVec := XMM()
	PXOR(prevVec, prevVec)

	prevScalar := GP32()
	XORL(prevScalar, prevScalar)

	valVec := XMM()
	scanVec := XMM()
	tmpVec := XMM()

	vecLoop := "shotindex_delta_decode_vec_loop"
	vecDone := "shotindex_delta_decode_vec_done"

	Label(vecLoop)
	CMPQ(index, vecLimit)
	JAE(op.LabelRef(vecDone))

	blockSrc := op.Mem{Base: srcBase, Index: index, Scale: 4}
	blockDst := op.Mem{Base: dstBase, Index: index, Scale: 4}

	MOVO(blockSrc, valVec)
	MOVO(valVec, scanVec)

	MOVO(scanVec, tmpVec)
	PSLLDQ(op.Imm(4), tmpVec)
	PADDL(tmpVec, scanVec)

	MOVO(scanVec, tmpVec)
	PSLLDQ(op.Imm(8), tmpVec)
	PADDL(tmpVec, scanVec)

	PADDL(prevVec, scanVec)
	MOVO(scanVec, blockDst)

	MOVO(scanVec, prevVec)
	PSHUFL(op.Imm(0xFF), prevVec, prevVec)
	MOVL(op.Mem{Base: dstBase, Index: index, Scale: 4, Disp: 12}, prevScalar)

	ADDQ(op.Imm(4), index)
	JMP(op.LabelRef(vecLoop))

	Label(vecDone)

	tailLoop := "shotindex_delta_decode_tail_loop"
	tailDone := "shotindex_delta_decode_tail_done"
	tailDelta := GP32()

	Label(tailLoop)
	CMPQ(index, n)
	JAE(op.LabelRef(tailDone))

	elemSrc := op.Mem{Base: srcBase, Index: index, Scale: 4}
	elemDst := op.Mem{Base: dstBase, Index: index, Scale: 4}

	MOVL(elemSrc, tailDelta)
	ADDL(tailDelta, prevScalar)
	MOVL(prevScalar, elemDst)

	ADDQ(op.Imm(1), index)
	JMP(op.LabelRef(tailLoop))

	Label(tailDone)
	RET()
}
