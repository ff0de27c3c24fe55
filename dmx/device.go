// Package dmx drives a DMX512 universe through an FTDI USB interface.
package dmx

import (
	"errors"
	"fmt"

	"github.com/ziutek/ftdi"
)

const (
	vendorID  = 0x0403
	productID = 0x6001
	baudRate  = 250000

	// Channels is the number of slots in a universe.
	Channels = 512
)

var ErrChannelRange = errors.New("dmx channel out of range")

// Universe is a DMX packet: the start code followed by one byte per
// channel, so channel n lives at index n.
type Universe [Channels + 1]byte

func (u *Universe) SetChannel(id int, value byte) error {
	if id < 1 || id > Channels {
		return fmt.Errorf("%w: %d", ErrChannelRange, id)
	}
	u[id] = value
	return nil
}

// SetRGB writes an RGB fixture starting at channel id.
func (u *Universe) SetRGB(id int, r, g, b byte) error {
	if id < 1 || id+2 > Channels {
		return fmt.Errorf("%w: %d", ErrChannelRange, id)
	}
	u[id], u[id+1], u[id+2] = r, g, b
	return nil
}

type Device struct {
	dev      *ftdi.Device
	universe Universe
}

func OpenDevice() (*Device, error) {
	dev, err := ftdi.OpenFirst(vendorID, productID, ftdi.ChannelAny)
	if err != nil {
		return nil, fmt.Errorf("could not open ftdi device: %w", err)
	}

	if err := configure(dev); err != nil {
		dev.Close()
		return nil, err
	}

	return &Device{dev: dev}, nil
}

func configure(dev *ftdi.Device) error {
	if err := dev.Reset(); err != nil {
		return fmt.Errorf("could not reset ftdi device: %w", err)
	}

	if err := dev.SetBaudrate(baudRate); err != nil {
		return fmt.Errorf("could not set baud rate for ftdi device: %w", err)
	}

	if err := dev.SetLineProperties(ftdi.DataBits8, ftdi.StopBits2, ftdi.ParityNone); err != nil {
		return fmt.Errorf("could not set line properties for ftdi device: %w", err)
	}

	if err := dev.SetFlowControl(ftdi.FlowCtrlDisable); err != nil {
		return fmt.Errorf("could not set flow control for ftdi device: %w", err)
	}

	return nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}

func (d *Device) SetChannel(id int, value byte) error {
	return d.universe.SetChannel(id, value)
}

func (d *Device) SetRGB(id int, r, g, b byte) error {
	return d.universe.SetRGB(id, r, g, b)
}

// Render sends the break, mark-after-break and the whole universe.
func (d *Device) Render() error {
	if err := d.dev.SetLineProperties2(ftdi.DataBits8, ftdi.StopBits2, ftdi.ParityNone, ftdi.BreakOn); err != nil {
		return fmt.Errorf("could not enable break mode for ftdi device: %w", err)
	}

	if err := d.dev.SetLineProperties2(ftdi.DataBits8, ftdi.StopBits2, ftdi.ParityNone, ftdi.BreakOff); err != nil {
		return fmt.Errorf("could not disable break mode for ftdi device: %w", err)
	}

	if _, err := d.dev.Write(d.universe[:]); err != nil {
		return fmt.Errorf("could not write frame to channel: %w", err)
	}

	return nil
}
