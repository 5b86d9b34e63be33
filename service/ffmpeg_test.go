package service

import (
	"strings"
	"testing"
)

func TestSegmentArgs(t *testing.T) {
	args := segmentArgs("scenes/scene_1.png", "audio/audio_1.mp3", 4.5, "temp_scene_1.mp4")
	joined := strings.Join(args, " ")

	want := "-y -loop 1 -i scenes/scene_1.png -i audio/audio_1.mp3 " +
		"-c:v libx264 -tune stillimage -c:a aac -b:a 192k -pix_fmt yuv420p " +
		"-shortest -t 4.500 temp_scene_1.mp4"
	if joined != want {
		t.Fatalf("segmentArgs:\n got  %s\n want %s", joined, want)
	}
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("scenes_list.txt", "out/final.mp4")
	joined := strings.Join(args, " ")

	// 流拷贝拼接：不重编码
	want := "-y -f concat -safe 0 -i scenes_list.txt -c copy out/final.mp4"
	if joined != want {
		t.Fatalf("concatArgs:\n got  %s\n want %s", joined, want)
	}
}

func TestFmtSeconds(t *testing.T) {
	tests := map[float64]string{
		4.5:     "4.500",
		0:       "0.000",
		12.3456: "12.346",
		59.9999: "60.000",
	}
	for in, want := range tests {
		if got := fmtSeconds(in); got != want {
			t.Fatalf("fmtSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 10); got != "short" {
		t.Fatalf("tail short = %q", got)
	}
	long := strings.Repeat("x", 20) + "END"
	got := tail(long, 5)
	if got != "...x"+"xEND" {
		t.Fatalf("tail long = %q", got)
	}
}
