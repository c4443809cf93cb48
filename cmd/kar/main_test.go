// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/drender/utility/kar"
)

func writeArchive(c *qt.C, path string, files ...string) {
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	c.Assert(err, qt.IsNil)
	for _, name := range files {
		c.Assert(builder.Add(name, strings.NewReader("contents of "+name)), qt.IsNil)
	}
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = builder.WriteTo(f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)
}

func TestEntryPath(t *testing.T) {
	c := qt.New(t)
	dst := filepath.Join(c.TempDir(), "out")

	for _, name := range []string{"vert.spv", "shaders/frag.spv", "a/../b.spv", "..data"} {
		path, err := entryPath(dst, name)
		c.Assert(err, qt.IsNil, qt.Commentf(name))
		rel, err := filepath.Rel(dst, path)
		c.Assert(err, qt.IsNil)
		c.Assert(strings.HasPrefix(rel, ".."+string(filepath.Separator)), qt.IsFalse, qt.Commentf(name))
	}

	for _, name := range []string{"", "..", "../escaped.txt", "a/../../escaped.txt", "/etc/passwd", "."} {
		_, err := entryPath(dst, name)
		c.Assert(err, qt.IsNotNil, qt.Commentf(name))
	}
}

func TestExtractFiles(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()
	archive := filepath.Join(root, "shaders.kar")
	writeArchive(c, archive, "vert.spv", "nested/frag.spv")

	out := filepath.Join(root, "out")
	c.Assert(extractFiles(archive, out), qt.IsNil)

	data, err := os.ReadFile(filepath.Join(out, "nested", "frag.spv"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "contents of nested/frag.spv")
}

func TestExtractRefusesEscapingEntries(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()
	archive := filepath.Join(root, "evil.kar")
	writeArchive(c, archive, "vert.spv", "../escaped.txt")

	out := filepath.Join(root, "out")
	err := extractFiles(archive, out)
	c.Assert(err, qt.ErrorMatches, `entry "../escaped.txt" escapes .*`)

	_, err = os.Stat(filepath.Join(root, "escaped.txt"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)
	// nothing is extracted from a rejected archive
	_, err = os.Stat(filepath.Join(out, "vert.spv"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}
