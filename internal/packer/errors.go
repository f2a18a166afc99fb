package packer

import "fmt"

var errContainerNotFound = fmt.Errorf("packer: container not found")
