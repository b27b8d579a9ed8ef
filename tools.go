//go:build tools
// +build tools

// Package tools pins the mockgen version used by the go:generate directives.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
