package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Descriptor bool
	Merge      bool
	Text       bool
}

var d *debug

func init() {
	d = &debug{}
	d.Descriptor = boolEnv("OBJC_DEBUG_DESCRIPTOR")
	d.Merge = boolEnv("OBJC_DEBUG_MERGE")
	d.Text = boolEnv("OBJC_DEBUG_TEXT")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Descriptor reports whether descriptor construction is traced.
func Descriptor() bool {
	return d.Descriptor
}

// Merge reports whether the evolvable merge-join is traced.
func Merge() bool {
	return d.Merge
}

func Text() bool {
	return d.Text
}
