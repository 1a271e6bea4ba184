//go:build !linux && !windows

package printer

import (
	"context"

	"go.uber.org/zap"
)

type rfcommLink struct {
	devicePath string
}

func ListPairedDevices() ([]BluetoothDevice, error) {
	return nil, ErrNotSupported
}

func bindRFCOMM(context.Context, string, int, *zap.Logger) (*rfcommLink, error) {
	return nil, ErrNotSupported
}

func (l *rfcommLink) release() {}
