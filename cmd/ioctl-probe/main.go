package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cvln/iouring"
	"github.com/cvln/iouring/internal/uapi"
)

func main() {
	verbose := flag.Bool("v", false, "print every probed opcode, not just supported ones")
	flag.Parse()

	probe, err := iouring.GetProbe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("last_op=%d\n", probe.LastOp)

	for op := uapi.OpNop; uint8(op) <= probe.LastOp; op++ {
		supported := iouring.OpcodeSupported(probe, op)
		if !supported && !*verbose {
			continue
		}
		fmt.Printf("  op=%-3d supported=%v\n", op, supported)
	}
}
