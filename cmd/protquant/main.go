// ProtQuant - Label-free proteomics quantification tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/ProtQuant/cmd/protquant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
