package cmd

import (
	"fmt"
)

// Init creates a new vault file
func Init() {
	v := openVault()

	if err := v.Init(); err != nil {
		HandleError(err)
	}

	fmt.Printf("✓ Initialized %s\n", v.Path())
}
