// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/drender/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(c *qt.C, files map[string]string, order ...string) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)
	for _, name := range order {
		c.Assert(builder.Add(name, bytes.NewReader([]byte(files[name]))), qt.IsNil)
	}

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	return buf.Bytes()
}

func openBytes(data []byte) (*kar.Archive, error) {
	return kar.Open(bytes.NewReader(data), int64(len(data)))
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(c, map[string]string{"test": testString1, "test2": testString2}, "test", "test2")

	ar, err := openBytes(data)
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Files(), qt.DeepEquals, []string{"test", "test2"})
	c.Assert(ar.Header().Author, qt.Equals, "devblok")

	f, err := ar.Open("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString2)))

	result, err := io.ReadAll(f)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString2)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(c, map[string]string{"test": testString1, "test2": testString2}, "test", "test2")

	ar, err := openBytes(data)
	c.Assert(err, qt.IsNil)

	f, err := ar.ReadAll("test")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, testString1)

	f, err = ar.ReadAll("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, testString2)

	_, err = ar.ReadAll("missing")
	c.Assert(err, qt.Equals, kar.ErrNotFound)
}

func TestOpenRejectsOtherFiles(t *testing.T) {
	c := qt.New(t)
	_, err := openBytes([]byte("PK\x03\x04 definitely a zip file"))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)

	_, err = openBytes([]byte("KA"))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)

	data := buildArchive(c, map[string]string{"test": testString1}, "test")
	_, err = openBytes(data[:20])
	c.Assert(err, qt.Equals, kar.ErrFileFormat)
}
