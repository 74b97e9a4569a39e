package snapshot

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/Francesco149/go-hachi8/hachi"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/bmp"
)

// testFramebuffer returns a framebuffer with the top-left and bottom-right
// pixels lit.
func testFramebuffer(t *testing.T) []byte {
	t.Helper()

	c := hachi.New(&hachi.Chip8Settings{Logger: log.NewTestLogger(t), Seed: 1})
	assert.NoError(t, c.LoadRaw([]byte{
		0x6A, 0x3F, // LD VA,3F
		0x6B, 0x1F, // LD VB,1F
		0xA3, 0x00, // LD I,300
		0xD0, 0x01, // DRW V0,V0,1
		0xDA, 0xB1, // DRW VA,VB,1
	}))
	c.Memory[0x300] = 0x80
	for i := 0; i < 5; i++ {
		_, err := c.Step()
		assert.NoError(t, err)
	}
	return c.Framebuffer()
}

func TestImage(t *testing.T) {
	img, err := Image(testFramebuffer(t))
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	assert.Equal(t, uint8(0xFF), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0xFF), img.GrayAt(63, 31).Y)
	assert.Equal(t, uint8(0), img.GrayAt(1, 0).Y)

	_, err = Image(make([]byte, 10))
	assert.ErrorContains(t, err, "unexpected framebuffer size")
}

func TestWritePPM(t *testing.T) {
	img, err := Image(testFramebuffer(t))
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, WritePPM(&buf, img))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3+64*32)
	assert.Equal(t, "P3", lines[0])
	assert.Equal(t, "64 32", lines[1])
	assert.Equal(t, "255", lines[2])
	assert.Equal(t, "255 255 255", lines[3])
	assert.Equal(t, "0 0 0", lines[4])
	assert.Equal(t, "255 255 255", lines[len(lines)-1])
}

func TestScaled(t *testing.T) {
	img, err := Image(testFramebuffer(t))
	assert.NoError(t, err)
	assert.True(t, Scaled(img, 1) == img)

	big := Scaled(img, 3)
	assert.Equal(t, image.Rect(0, 0, 192, 96), big.Bounds())
	assert.Equal(t, uint8(0xFF), big.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), big.GrayAt(3, 0).Y)
	assert.Equal(t, uint8(0xFF), big.GrayAt(189, 93).Y)
}

func TestEncode(t *testing.T) {
	fb := testFramebuffer(t)

	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, "out.PNG", fb, 2))
	img, err := png.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 64), img.Bounds())

	buf.Reset()
	assert.NoError(t, Encode(&buf, "out.bmp", fb, 1))
	img, err = bmp.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)

	buf.Reset()
	assert.NoError(t, Encode(&buf, "out.ppm", fb, 1))
	assert.True(t, strings.HasPrefix(buf.String(), "P3\n64 32\n255\n"))

	buf.Reset()
	assert.ErrorContains(t, Encode(&buf, "out.gif", fb, 1), "unsupported image format '.gif'")
	assert.Equal(t, 0, buf.Len())
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat("a.ppm"))
	assert.NoError(t, CheckFormat("dir/a.PNG"))
	assert.NoError(t, CheckFormat("a.bmp"))
	assert.ErrorContains(t, CheckFormat("a.jpg"), "unsupported image format '.jpg'")
	assert.ErrorContains(t, CheckFormat("screen"), "unsupported image format ''")
}
