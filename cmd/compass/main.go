// Command compass is the command-line front end: it runs the questionnaire
// rules locally and manages the feedback store, migrations and desktop
// client registration.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
