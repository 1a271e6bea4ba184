//go:build windows

package printer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"
)

// rfcommLink on Windows is just the COM port; the OS owns the SPP binding.
type rfcommLink struct {
	devicePath string
}

// ListPairedDevices returns Bluetooth COM ports on Windows.
// Paired SPP devices appear as COM ports automatically.
func ListPairedDevices() ([]BluetoothDevice, error) {
	ports, err := readSerialComm()
	if err != nil {
		return nil, err
	}

	var devices []BluetoothDevice
	for name, port := range ports {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "bth") || strings.Contains(lower, "bluetooth") {
			devices = append(devices, BluetoothDevice{Name: name, MAC: port})
		}
	}
	// no Bluetooth-specific entries: offer every COM port
	if len(devices) == 0 {
		for name, port := range ports {
			devices = append(devices, BluetoothDevice{Name: name, MAC: port})
		}
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// readSerialComm reads the device -> COM port map from the registry.
func readSerialComm() (map[string]string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `HARDWARE\DEVICEMAP\SERIALCOMM`, registry.READ)
	if err != nil {
		return nil, fmt.Errorf("open SERIALCOMM key: %w", err)
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	ports := make(map[string]string, len(names))
	for _, name := range names {
		if val, _, err := key.GetStringValue(name); err == nil {
			ports[name] = val
		}
	}
	return ports, nil
}

// bindRFCOMM maps the address (a COM port such as "COM3") to its device path.
func bindRFCOMM(_ context.Context, port string, _ int, log *zap.Logger) (*rfcommLink, error) {
	if !strings.HasPrefix(strings.ToUpper(port), "COM") {
		return nil, fmt.Errorf("invalid COM port: %s", port)
	}

	path := port
	// COM10 and up need the \\.\ prefix
	if len(port) > 4 {
		path = `\\.\` + port
	}
	log.Debug("using COM port", zap.String("device", path))
	return &rfcommLink{devicePath: path}, nil
}

func (l *rfcommLink) release() {}
