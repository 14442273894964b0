//go:build avogen
// +build avogen

// Command avogen generates amd64 kernels for shotindex's delta/zigzag
// transform. It builds only with the avogen build tag, so the generator
// never becomes part of a normal build. No go:generate directive in this
// module runs it, and shotindex declares and calls none of the generated
// kernels.
package main

import (
	"flag"
	"strings"

	. "github.com/mmcloughlin/avo/build"
)

var component = flag.String("component", "all", "component to generate")

func main() {
	flag.Parse()

	comp := strings.ToLower(*component)

	Package("github.com/qsimio/shotrecord/shotindex")
	ConstraintExpr("amd64")
	ConstraintExpr("!noasm")

	if comp == "delta" || comp == "all" {
		genShotIndexDeltaEncodeKernel()
		genShotIndexDeltaDecodeKernel()
	}

	if comp == "zigzag" || comp == "all" {
		genShotIndexZigZagEncodeKernel()
		genShotIndexZigZagDecodeKernel()
	}

	Generate()
}
