//go:build !windows

package winsvc

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrUnsupported is returned by every service operation off Windows.
var ErrUnsupported = errors.New("winsvc: windows services are not supported on this platform")

func IsWindowsService() bool { return false }

func RunService(_ string, _ logrus.FieldLogger, _ func(ctx context.Context) error) error {
	return ErrUnsupported
}

// SetupEventLog leaves log untouched.
func SetupEventLog(_ string, _ *logrus.Logger) {}

func Install(_ Service, _ string, _ logrus.FieldLogger) error { return ErrUnsupported }

func Uninstall(_ string, _ logrus.FieldLogger) error { return ErrUnsupported }

func ExePath() (string, error) { return "", ErrUnsupported }
