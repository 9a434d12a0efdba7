package cmd

import (
	"fmt"
	"os"
)

// Compact compacts the vault database to reclaim unused space
func Compact() {
	v := openVault()

	// Get file size before
	info, err := os.Stat(v.Path())
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := v.Compact(); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(v.Path())
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
