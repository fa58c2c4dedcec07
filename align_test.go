package vke

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}
}

func TestAlignment(t *testing.T) {
	cases := []struct {
		size, align, want vk.DeviceSize
	}{
		{100, 0, 100},
		{100, 64, 128},
		{128, 64, 128},
		{1, 256, 256},
		{0, 16, 0},
		{10, 3, 12},
		{12, 3, 12},
		{65, 1, 65},
	}
	for _, c := range cases {
		if got := Alignment(c.size, c.align); got != c.want {
			t.Errorf("Alignment(%d, %d) = %d, want %d", c.size, c.align, got, c.want)
		}
	}
}

func TestAlignmentLaws(t *testing.T) {
	aligns := []vk.DeviceSize{1, 2, 4, 16, 64, 256, 3, 6, 48}
	for _, a := range aligns {
		for s := vk.DeviceSize(0); s < 600; s += 7 {
			got := Alignment(s, a)
			if got < s {
				t.Fatalf("Alignment(%d, %d) = %d is smaller than the input", s, a, got)
			}
			if got%a != 0 {
				t.Fatalf("Alignment(%d, %d) = %d is not a multiple", s, a, got)
			}
			if got-s >= a {
				t.Fatalf("Alignment(%d, %d) = %d is not the smallest multiple", s, a, got)
			}
			if again := Alignment(got, a); again != got {
				t.Fatalf("Alignment(%d, %d) = %d, want %d unchanged", got, a, again, got)
			}
		}
	}
}
