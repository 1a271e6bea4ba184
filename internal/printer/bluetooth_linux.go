//go:build linux

package printer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// rfcommLink is a running `rfcomm connect` process holding /dev/rfcommN.
type rfcommLink struct {
	devicePath string
	helper     string
	cmd        *exec.Cmd
	cancel     context.CancelFunc
}

// ListPairedDevices returns all paired Bluetooth devices
func ListPairedDevices() ([]BluetoothDevice, error) {
	out, err := exec.Command("bluetoothctl", "devices", "Paired").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list paired devices: %w", err)
	}

	devices := parseBluetoothctlDevices(string(out))
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// parseBluetoothctlDevices reads lines of the form
// "Device XX:XX:XX:XX:XX:XX DeviceName".
func parseBluetoothctlDevices(out string) []BluetoothDevice {
	var devices []BluetoothDevice
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "Device ")
		if !ok {
			continue
		}
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) == 2 {
			devices = append(devices, BluetoothDevice{MAC: parts[0], Name: parts[1]})
		}
	}
	return devices
}

// findAvailableRFCOMMDevice finds an unused /dev/rfcommN device number
func findAvailableRFCOMMDevice() (string, int, error) {
	for i := 0; i < 10; i++ {
		devPath := fmt.Sprintf("/dev/rfcomm%d", i)
		out, _ := exec.Command("rfcomm", "show", devPath).Output()
		if len(out) == 0 || strings.Contains(string(out), "No such device") {
			return devPath, i, nil
		}
	}
	return "", -1, fmt.Errorf("no available RFCOMM device slots")
}

// checkPrivilegeHelper returns pkexec (works under a GUI session) or sudo.
func checkPrivilegeHelper() string {
	if _, err := exec.LookPath("pkexec"); err == nil {
		return "pkexec"
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return "sudo"
	}
	return ""
}

func privileged(ctx context.Context, helper string, args ...string) *exec.Cmd {
	if helper == "pkexec" {
		return exec.CommandContext(ctx, "pkexec", append([]string{"rfcomm"}, args...)...)
	}
	return exec.CommandContext(ctx, "sudo", append([]string{"-n", "rfcomm"}, args...)...)
}

// bindRFCOMM runs `rfcomm connect` in the background and returns once the
// tty appears. The process keeps running until release.
func bindRFCOMM(ctx context.Context, mac string, channel int, log *zap.Logger) (*rfcommLink, error) {
	if _, err := exec.LookPath("rfcomm"); err != nil {
		return nil, fmt.Errorf("rfcomm not found - install with: sudo apt install bluez")
	}

	devPath, devNum, err := findAvailableRFCOMMDevice()
	if err != nil {
		return nil, err
	}

	helper := checkPrivilegeHelper()
	if helper == "" {
		return nil, ErrPrivilegeRequired
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := privileged(procCtx, helper, "connect", fmt.Sprintf("/dev/rfcomm%d", devNum), mac, fmt.Sprint(channel))
	link := &rfcommLink{devicePath: devPath, helper: helper, cmd: cmd, cancel: cancel}

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	log.Info("binding rfcomm", zap.String("device", devPath), zap.Int("channel", channel))
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start rfcomm: %w", err)
	}

	go logOutput(stdout, log)
	go logOutput(stderr, log)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(devPath); err == nil {
			// give the tty a moment to settle
			time.Sleep(500 * time.Millisecond)
			return link, nil
		}

		select {
		case <-ctx.Done():
			link.release()
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%w: timeout waiting for %s", ErrRFCOMMFailed, devPath)
			}
			return nil, ErrConnectionCanceled
		case <-ticker.C:
		}
	}
}

func logOutput(r io.Reader, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug("rfcomm", zap.String("line", scanner.Text()))
	}
}

// release stops the rfcomm process and frees the device node.
func (l *rfcommLink) release() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.devicePath != "" {
		privileged(context.Background(), l.helper, "release", l.devicePath).Run()
	}
	if l.cmd != nil && l.cmd.Process != nil {
		l.cmd.Process.Kill()
		l.cmd.Wait()
	}
}
