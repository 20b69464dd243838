package screen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrochip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
)

func TestRender(t *testing.T) {
	var fb vm.Framebuffer
	fb[0][0] = true
	fb[31][63] = true

	var buf bytes.Buffer
	assert.NoError(t, Render(&buf, &fb, ASCII))

	rows := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, vm.DisplayHeight, len(rows))
	for _, row := range rows {
		assert.Equal(t, vm.DisplayWidth, len(row))
	}
	assert.Equal(t, "#"+strings.Repeat(".", vm.DisplayWidth-1), rows[0])
	assert.Equal(t, strings.Repeat(".", vm.DisplayWidth-1)+"#", rows[vm.DisplayHeight-1])
}

func TestRender_Blocks(t *testing.T) {
	var fb vm.Framebuffer
	fb[1][2] = true

	var buf bytes.Buffer
	assert.NoError(t, Render(&buf, &fb, Blocks))
	assert.Equal(t, 1, strings.Count(buf.String(), Blocks.On))
}

func TestStyleFor_File(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "screen.txt"))
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, ASCII, StyleFor(f))
}
