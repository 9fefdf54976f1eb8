package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// WorkDir expands dotPath, joins the optional sub path and makes sure the
// directory exists.
func WorkDir(dotPath string, sub ...string) (string, error) {
	parts := append([]string{dotPath}, sub...)
	dir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	return dir, nil
}
