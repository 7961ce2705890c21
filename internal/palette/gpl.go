package palette

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coreman2200/tubestage/internal/pixel"
)

// LoadGPL reads a GIMP palette file. The palette takes its name from the
// "Name:" header, or the file name when the header is missing.
func LoadGPL(path string) (Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return Palette{}, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return Palette{}, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func ParseGPL(r io.Reader) (Palette, error) {
	var p Palette
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// R G B [label]
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		var rgb [3]uint8
		ok := true
		for k := 0; k < 3; k++ {
			v, err := strconv.Atoi(fields[k])
			if err != nil || v < 0 || v > 255 {
				ok = false
				break
			}
			rgb[k] = uint8(v)
		}
		if ok {
			p.Colors = append(p.Colors, pixel.RGB{R: rgb[0], G: rgb[1], B: rgb[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return Palette{}, err
	}
	if len(p.Colors) == 0 {
		return Palette{}, ErrEmpty
	}
	return p, nil
}
