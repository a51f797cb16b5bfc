// Package main provides the entry point for devhub.
package main

import (
	"errors"
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var stacked *goerrors.Error
		if logLevel == "debug" && errors.As(err, &stacked) {
			fmt.Fprintln(os.Stderr, stacked.ErrorStack())
		}
		os.Exit(1)
	}
}
