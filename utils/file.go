package utils

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	ErrNoFileInZip = eris.New("no matching file in zip")
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.MkdirAll(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 解压zip到dstDir，返回解压出的文件（不含目录）
func Unzip(zipFile, dstDir string) (files []string, err error) {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return nil, eris.Wrapf(err, "open zip %s", zipFile)
	}
	defer r.Close()
	for _, f := range r.File {
		var path string
		if path, err = unzipEntry(f, dstDir); err != nil {
			return
		}
		if path != "" {
			files = append(files, path)
		}
	}
	return
}

func unzipEntry(f *zip.File, dstDir string) (string, error) {
	dstPath := filepath.Join(dstDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(dstPath), filepath.Clean(dstDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("illegal path %q in zip", f.Name)
	}
	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dstPath, os.ModePerm); err != nil {
			return "", eris.Wrapf(err, "create dir %s", dstPath)
		}
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), os.ModePerm); err != nil {
		return "", eris.Wrapf(err, "create dir for %s", dstPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrapf(err, "open entry %s", f.Name)
	}
	defer rc.Close()
	out, err := os.Create(dstPath)
	if err != nil {
		return "", eris.Wrapf(err, "create %s", dstPath)
	}
	defer out.Close()
	if _, err = io.Copy(out, rc); err != nil {
		return "", eris.Wrapf(err, "write %s", dstPath)
	}
	return dstPath, nil
}

// 解压后按扩展名查找文件，多个时取路径排序后的第一个
func GetFileInZip(zipFile, dstDir, ext string) (path string, err error) {
	files, err := Unzip(zipFile, dstDir)
	if err != nil {
		return
	}
	return FindFileWithExt(files, ext)
}

func FindFileWithExt(files []string, ext string) (path string, err error) {
	var found []string
	for _, file := range files {
		if strings.EqualFold(filepath.Ext(file), ext) {
			found = append(found, file)
		}
	}
	if len(found) == 0 {
		err = eris.Wrapf(ErrNoFileInZip, "want %s", ext)
		return
	}
	sort.Strings(found)
	path = found[0]
	return
}
