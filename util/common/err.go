// Package common holds small error helpers shared by the web and CLI layers.
package common

import (
	"errors"
	"fmt"

	"github.com/visioweb/askboard/logger"
)

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg[:len(msg)-1])
}

// Combine joins the non-nil errors, returning nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover logs a recovered panic with msg and returns it. It only recovers when
// deferred directly: defer common.Recover("...").
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, " panic: ", panicErr)
		}
	}
	return panicErr
}
