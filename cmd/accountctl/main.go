// accountctl is a command line front end for the account API. It keeps a
// session on disk, so consecutive invocations act as one logged-in user.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
