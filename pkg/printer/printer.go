package printer

import (
	"fmt"
	"net"
	"os"
	"time"
)

// Printer sends raw ESC/POS data to a receipt printer.
type Printer interface {
	Print(data []byte) error
	IsConnected() bool
}

// Type names accepted by New.
const (
	TypeUSB     = "usb"
	TypeNetwork = "network"
	TypeNone    = "none"
)

type devicePrinter struct {
	path string
}

// NewDevicePrinter writes to a character device such as /dev/usb/lp0.
func NewDevicePrinter(path string) Printer {
	return &devicePrinter{path: path}
}

func (p *devicePrinter) Print(data []byte) error {
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.path, err)
	}
	return nil
}

func (p *devicePrinter) IsConnected() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

type networkPrinter struct {
	address      string
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

// NewNetworkPrinter talks raw TCP to a printer, usually on port 9100.
func NewNetworkPrinter(address string) Printer {
	return &networkPrinter{
		address:      address,
		dialTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

func (p *networkPrinter) Print(data []byte) error {
	conn, err := net.DialTimeout("tcp", p.address, p.dialTimeout)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) IsConnected() bool {
	conn, err := net.DialTimeout("tcp", p.address, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Discard accepts every job and prints nothing.
type Discard struct {
	Jobs [][]byte
}

func (d *Discard) Print(data []byte) error {
	d.Jobs = append(d.Jobs, append([]byte(nil), data...))
	return nil
}

func (d *Discard) IsConnected() bool { return false }

// New builds the printer for the configured type.
func New(printerType, devicePath, address string) (Printer, error) {
	switch printerType {
	case TypeUSB:
		if devicePath == "" {
			return nil, fmt.Errorf("printer: device path is required for %q", TypeUSB)
		}
		return NewDevicePrinter(devicePath), nil
	case TypeNetwork:
		if address == "" {
			return nil, fmt.Errorf("printer: address is required for %q", TypeNetwork)
		}
		return NewNetworkPrinter(address), nil
	case TypeNone, "":
		return &Discard{}, nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q", printerType)
	}
}
