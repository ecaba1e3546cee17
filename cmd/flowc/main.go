// Command flowc compiles dataflow pipelines to a chosen backend and runs them
// on the executable ones.
//
//	flowc compile pipeline.yaml --target script:sql
//	flowc run pipeline.yaml --target vector
//	flowc backends --health
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
