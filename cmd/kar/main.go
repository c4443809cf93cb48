// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/drender/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the archive given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.kar", "Destination file, or directory when extracting")
	list            = flag.String("l", "", "List the contents of the archive given")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var err error
	switch {
	case countSet(*extract, *compress, *list) > 1:
		err = errors.New("only one operation at a time")
	case *extract != "":
		err = extractFiles(*extract, *dstFile)
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.WithError(err).Fatal("kar")
	}
}

func countSet(values ...string) (n int) {
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.Newf("destination file %s exists, will not overwrite", dst)
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	builder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			rel = filepath.Base(path)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		log.WithField("file", rel).Info("adding")
		return builder.Add(filepath.ToSlash(rel), f)
	})
	if err != nil {
		return errors.Wrapf(err, "compressing %s", src)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "writing %s", dst)
	}
	log.WithFields(log.Fields{"files": builder.Len(), "bytes": n}).Info("archive written")
	return nil
}

func extractFiles(src, dst string) error {
	archive, err := kar.OpenFile(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer archive.Close()

	if dst == "out.kar" {
		dst = "."
	}
	// every name is checked before anything is written
	names := archive.Files()
	paths := make([]string, len(names))
	for i, name := range names {
		if paths[i], err = entryPath(dst, name); err != nil {
			return err
		}
	}
	for i, name := range names {
		if err := extractFile(archive.Archive, name, paths[i]); err != nil {
			return err
		}
		log.WithField("file", name).Info("extracted")
	}
	return nil
}

// entryPath places an archive entry under dst, refusing names that
// would land outside of it
func entryPath(dst, name string) (string, error) {
	local := filepath.FromSlash(name)
	if name == "" || filepath.IsAbs(local) || filepath.VolumeName(local) != "" {
		return "", errors.Newf("entry %q is not a relative path", name)
	}
	path := filepath.Join(dst, local)
	rel, err := filepath.Rel(dst, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf("entry %q escapes %s", name, dst)
	}
	return path, nil
}

func extractFile(archive *kar.Archive, name, path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("%s exists, will not overwrite", path)
	}
	r, err := archive.Open(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "extracting %s", name)
}

func listFiles(src string) error {
	archive, err := kar.OpenFile(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer archive.Close()

	h := archive.Header()
	fmt.Printf("author: %s\nversion: %d\ncreated: %s\n", h.Author, h.Version, time.Unix(h.DateCreated, 0).Format(time.RFC3339))
	for _, e := range h.Index {
		fmt.Printf("%10d %10d %s\n", e.Size, e.CompressedSize, e.Name)
	}
	return nil
}
