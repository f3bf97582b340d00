// Package main is the entry point for the gitfixes CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/gitfixes/cmd"
	"github.com/huangsam/gitfixes/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
