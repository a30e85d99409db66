// Package diskimage wraps hdiutil to build a disk image from a completed
// download tree.
package diskimage
