// Command fut-gen generates FUT test configurations for a device pair.
//
// The configurations are built from the generic, platform and model input
// layers below the FUT base directory and filtered against the capabilities
// of both devices.
//
// Usage:
//
//	fut-gen --dut <MODEL> --ref <MODEL> [flags]
//	fut-gen <command> [flags]
//
// Commands:
//
//	validate  Check every input declaration without generating
//	show      Print a model's capabilities as YAML
//	explore   Inspect a generation run interactively
//	trace     Read back a generation trace file
//
// Examples:
//
//	# Print the configurations of every test
//	fut-gen -d PP603X -r PP203X
//
//	# Write the extended WM configurations to a file
//	fut-gen -d PP603X -r PP203X -m WM -g extended -j wm.json
//
//	# Generate several pairs and record every decision
//	fut-gen --pair PP603X/PP203X --pair PP203X/PP603X --trace run.ftrace
//
//	# Show why entries of a test were dropped
//	fut-gen trace view --test wm2_set_channel --decision drop run.ftrace
package main

import (
	"os"

	"github.com/plume-design/fut-gen/cmd/fut-gen/commands"
)

func main() {
	os.Exit(commands.Run(os.Args[1:], os.Stdout, os.Stderr))
}
