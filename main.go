// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/relkit/relkit/cmd/relkit"

func main() {
	cmd.Execute()
}
