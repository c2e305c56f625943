// Command portalctl administers the civic portal: schema migration, counter
// export and import, and admin token issuance.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultEnvironment()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
