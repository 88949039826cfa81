//go:build tools

// This file keeps 'go mod tidy' from removing code generator dependencies so
// that 'go.sum' pins their versions.
// https://github.com/golang/go/issues/25922#issuecomment-413898264

package tblogger

import (
	_ "github.com/google/wire/cmd/wire"
	_ "go.uber.org/mock/mockgen"
)
