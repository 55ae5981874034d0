package main

import (
	"io"
	"os"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/pathio"
)

// readInput returns the contents of args[0], or stdin when no file or "-"
// is given.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func readPath(args []string) (domain.Path, error) {
	data, err := readInput(args)
	if err != nil {
		return nil, err
	}
	return pathio.Parse(data)
}
