// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/drender/utility/kar"
)

func writeArchive(c *qt.C) string {
	data := buildArchive(c, map[string]string{
		"test/test1.txt": "this is a test",
		"test/test2.txt": "this is another test",
		"big.bin":        strings.Repeat("spirv", 20000),
	}, "test/test1.txt", "test/test2.txt", "big.bin")
	path := filepath.Join(c.TempDir(), "opentest.kar")
	c.Assert(os.WriteFile(path, data, 0644), qt.IsNil)
	return path
}

func TestOpenAndReadAll(t *testing.T) {
	c := qt.New(t)
	r, err := os.Open(writeArchive(c))
	c.Assert(err, qt.IsNil)
	defer r.Close()

	info, err := r.Stat()
	c.Assert(err, qt.IsNil)
	ar, err := kar.Open(r, info.Size())
	c.Assert(err, qt.IsNil)

	f, err := ar.ReadAll("test/test1.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is a test")

	f, err = ar.ReadAll("test/test2.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is another test")
}

func TestOpenFileMmap(t *testing.T) {
	c := qt.New(t)
	ar, err := kar.OpenFile(writeArchive(c))
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	// concurrent readers share the mapping
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "test/test1.txt"
			if i%2 == 1 {
				name = "big.bin"
			}
			data, err := ar.ReadAll(name)
			if err == nil {
				results[i] = string(data)
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if i%2 == 1 {
			c.Assert(r, qt.Equals, strings.Repeat("spirv", 20000))
		} else {
			c.Assert(r, qt.Equals, "this is a test")
		}
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := kar.OpenFile(filepath.Join(t.TempDir(), "nothing.kar"))
	qt.Assert(t, err, qt.IsNotNil)
}
