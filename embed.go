package main

import (
	"embed"
	"fmt"
	"io/fs"
)

// The viewer page served under /<prefix>/.
//
//go:embed all:frontend
var viewerFiles embed.FS

func viewerFS() (fs.FS, error) {
	sub, err := fs.Sub(viewerFiles, "frontend")
	if err != nil {
		return nil, fmt.Errorf("viewer files: %w", err)
	}
	return sub, nil
}
