package main

import (
	"fmt"
	"os"

	"github.com/offlinefirst/screenframe/internal/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	if err := root.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "screenframe:", err)
		os.Exit(1)
	}
}
