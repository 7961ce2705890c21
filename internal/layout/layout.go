package layout

import (
	"errors"
	"fmt"
)

// DefaultHeight is used when a profile does not declare pixels per column.
const DefaultHeight = 60

// Geometry limits. Every frame and mask is allocated at N*H, so a profile
// past MaxPixels is rejected rather than rendered.
const (
	MaxWidth  = 1024
	MaxHeight = 2048
	MaxX      = 1 << 16
	MaxPixels = 1 << 21
)

var (
	ErrDuplicateID    = errors.New("layout: device id already exists")
	ErrEmptyID        = errors.New("layout: device id is empty")
	ErrDeviceNotFound = errors.New("layout: device not found")
	ErrBadWidth       = errors.New("layout: device width must be >= 1")
	ErrBadHeight      = errors.New("layout: pixels per column must be >= 1")
	ErrBadPosition    = errors.New("layout: device x out of range")
	ErrTooLarge       = errors.New("layout: stage exceeds pixel limit")
)

// Device is one LED fixture occupying Width consecutive stage columns
// starting at X. Its pixels are wired column-major: all rows of local column
// 0, then column 1, and so on.
type Device struct {
	ID                string `yaml:"id" json:"id"`
	Address           string `yaml:"address" json:"address"`
	Width             int    `yaml:"width" json:"width"`
	X                 int    `yaml:"x" json:"x"`
	FlipVertical      bool   `yaml:"flip_vertical,omitempty" json:"flipVertical,omitempty"`
	ReverseHorizontal bool   `yaml:"reverse_horizontal,omitempty" json:"reverseHorizontal,omitempty"`
}

// W is the effective width; anything below 1 counts as 1.
func (d Device) W() int {
	if d.Width < 1 {
		return 1
	}
	return d.Width
}

// Index maps a local (column,row) to the device's linear pixel index.
func (d Device) Index(col, row, height int) int {
	return col*height + row
}

// Count is the number of pixels the device drives at the given height.
func (d Device) Count(height int) int {
	return d.W() * height
}

type Profile struct {
	Version         int      `yaml:"version" json:"version"`
	Name            string   `yaml:"name" json:"name"`
	PixelsPerColumn int      `yaml:"pixels_per_column" json:"pixelsPerColumn"`
	Devices         []Device `yaml:"devices" json:"devices"`
}

// Height is PixelsPerColumn, defaulted when unset.
func (p *Profile) Height() int {
	if p == nil || p.PixelsPerColumn < 1 {
		return DefaultHeight
	}
	return p.PixelsPerColumn
}

// Clone returns a deep copy; edits on the copy never reach p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Devices = append([]Device(nil), p.Devices...)
	return &c
}

func (p *Profile) find(id string) int {
	for i := range p.Devices {
		if p.Devices[i].ID == id {
			return i
		}
	}
	return -1
}

// Device looks a device up by id.
func (p *Profile) Device(id string) (Device, bool) {
	if i := p.find(id); i >= 0 {
		return p.Devices[i], true
	}
	return Device{}, false
}

func checkDevice(d Device) error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.Width < 1 || d.Width > MaxWidth {
		return fmt.Errorf("%w: %s has width %d (max %d)", ErrBadWidth, d.ID, d.Width, MaxWidth)
	}
	if d.X < -MaxX || d.X > MaxX {
		return fmt.Errorf("%w: %s at x=%d (limit ±%d)", ErrBadPosition, d.ID, d.X, MaxX)
	}
	return nil
}

func checkHeight(h int) error {
	if h < 1 || h > MaxHeight {
		return fmt.Errorf("%w: got %d (max %d)", ErrBadHeight, h, MaxHeight)
	}
	return nil
}

func (p *Profile) Add(d Device) error {
	if err := checkDevice(d); err != nil {
		return err
	}
	if p.find(d.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
	}
	p.Devices = append(p.Devices, d)
	return nil
}

func (p *Profile) Remove(id string) error {
	i := p.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	p.Devices = append(p.Devices[:i], p.Devices[i+1:]...)
	return nil
}

// Update replaces the device with the same id, keeping its position in the
// declaration order.
func (p *Profile) Update(d Device) error {
	i := p.find(d.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, d.ID)
	}
	if err := checkDevice(d); err != nil {
		return err
	}
	p.Devices[i] = d
	return nil
}

func (p *Profile) Move(id string, x int) error {
	i := p.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	d := p.Devices[i]
	d.X = x
	if err := checkDevice(d); err != nil {
		return err
	}
	p.Devices[i] = d
	return nil
}

func (p *Profile) Resize(id string, width int) error {
	i := p.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	d := p.Devices[i]
	d.Width = width
	if err := checkDevice(d); err != nil {
		return err
	}
	p.Devices[i] = d
	return nil
}

func (p *Profile) SetHeight(h int) error {
	if err := checkHeight(h); err != nil {
		return err
	}
	p.PixelsPerColumn = h
	return nil
}

// Validate checks id uniqueness, per-device geometry and the total stage
// size across the whole profile. An unset height is allowed.
func (p *Profile) Validate() error {
	if p.PixelsPerColumn != 0 {
		if err := checkHeight(p.PixelsPerColumn); err != nil {
			return err
		}
	}
	seen := make(map[string]struct{}, len(p.Devices))
	for _, d := range p.Devices {
		if err := checkDevice(d); err != nil {
			return err
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	if s, ok := Derive(p); ok && s.Len() > MaxPixels {
		return fmt.Errorf("%w: %d columns x %d rows (max %d pixels)", ErrTooLarge, s.N, s.H, MaxPixels)
	}
	return nil
}

// Demo is a six-device stage: two single tubes on each wing and two
// five-column panels in the middle.
func Demo() *Profile {
	return &Profile{
		Version:         1,
		Name:            "Demo Stage 14",
		PixelsPerColumn: DefaultHeight,
		Devices: []Device{
			{ID: "TL_L1", Address: "192.168.4.10", Width: 1, X: -7},
			{ID: "TL_L2", Address: "192.168.4.12", Width: 1, X: -6},
			{ID: "STAGE_A", Address: "192.168.4.20", Width: 5, X: -2, ReverseHorizontal: true},
			{ID: "STAGE_B", Address: "192.168.4.21", Width: 5, X: 3},
			{ID: "TL_R1", Address: "192.168.4.11", Width: 1, X: 9, FlipVertical: true},
			{ID: "TL_R2", Address: "192.168.4.13", Width: 1, X: 10},
		},
	}
}
