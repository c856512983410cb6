// SPDX-License-Identifier: MPL-2.0

// Command bindle bundles interpreted applications into self-contained
// launchable artifacts.
package main

import cmd "bindle-cli/cmd/bindle"

func main() {
	cmd.Execute()
}
