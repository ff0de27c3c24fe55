package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferSize(t *testing.T) {
	b := NewBuffer(Width, Height)

	assert.Len(t, b.Pix, Width*Height*3)
	assert.Equal(t, Width*Height, b.Len())
}

func TestToRGBA(t *testing.T) {
	b := NewBuffer(2, 2)
	copy(b.Pix, []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})

	tests := []struct {
		name string
		flip bool
		want []byte
	}{
		{
			name: "straight",
			want: []byte{
				1, 2, 3, 255, 4, 5, 6, 255,
				7, 8, 9, 255, 10, 11, 12, 255,
			},
		},
		{
			name: "flipped",
			flip: true,
			want: []byte{
				7, 8, 9, 255, 10, 11, 12, 255,
				1, 2, 3, 255, 4, 5, 6, 255,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := b.RGBA(tt.flip)
			require.Equal(t, 2, img.Bounds().Dx())
			assert.Equal(t, tt.want, img.Pix)
		})
	}
}
