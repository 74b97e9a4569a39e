/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of go-hachi.
	go-hachi is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	go-hachi is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with go-hachi. If not, see <http://www.gnu.org/licenses/>.
*/

// Package snapshot converts a hachi framebuffer into image files.
package snapshot

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/Francesco149/go-hachi8/hachi"
	"golang.org/x/image/bmp"
)

// Image returns the framebuffer as a grayscale image. Only the first byte
// of each pixel is used since all of them hold the same intensity.
func Image(framebuffer []byte) (*image.Gray, error) {
	if len(framebuffer) != hachi.Width*hachi.Height*hachi.BytesPerPixel {
		return nil, fmt.Errorf("unexpected framebuffer size %v", len(framebuffer))
	}

	img := image.NewGray(image.Rect(0, 0, hachi.Width, hachi.Height))
	for i := range img.Pix {
		img.Pix[i] = framebuffer[i*hachi.BytesPerPixel]
	}
	return img, nil
}

// WritePPM writes img as a plain (P3) portable pixmap.
func WritePPM(w io.Writer, img *image.Gray) error {
	bw := bufio.NewWriter(w)
	bounds := img.Bounds()
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			fmt.Fprintf(bw, "%d %d %d\n", v, v, v)
		}
	}
	return bw.Flush()
}

// CheckFormat returns an error if the extension of name is not one of the
// formats supported by Encode.
func CheckFormat(name string) error {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".ppm", ".png", ".bmp":
		return nil
	default:
		return fmt.Errorf("unsupported image format '%s'", ext)
	}
}

// Encode writes the framebuffer to w in the format matching the extension of
// name: .ppm, .png or .bmp. Every pixel becomes a scale x scale block.
func Encode(w io.Writer, name string, framebuffer []byte, scale int) error {
	if err := CheckFormat(name); err != nil {
		return err
	}
	img, err := Image(framebuffer)
	if err != nil {
		return err
	}
	img = Scaled(img, scale)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return WritePPM(w, img)
	}
}

// Scaled returns img enlarged by factor with nearest neighbour sampling.
func Scaled(img *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return img
	}

	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.SetGray(x, y, color.Gray{Y: img.GrayAt(x/factor, y/factor).Y})
		}
	}
	return out
}
