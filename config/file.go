package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// FindConfigFile looks for one of cfgFilenames in path and then in its parents,
// returning the closest match.
func FindConfigFile(path string, cfgFilenames []string) (string, error) {
	var err error

	var dir string
	if path == "." {
		dir, err = os.Getwd()
	} else {
		dir = path
		_, err = os.Stat(dir)
	}

	if err != nil {
		return "", fmt.Errorf("unable to get directory \"%s\" to findCfg: %w", dir, err)
	}

	cfg := findConfigInDir(dir, cfgFilenames)

	for cfg == "" && dir != filepath.Dir(dir) {
		dir = filepath.Dir(dir)
		cfg = findConfigInDir(dir, cfgFilenames)
	}

	if cfg == "" {
		return "", fmt.Errorf("config could not be found, want one of %v: %w", cfgFilenames, os.ErrNotExist)
	}

	return cfg, nil
}

func findConfigInDir(dir string, cfgFilenames []string) string {
	for _, cfgName := range cfgFilenames {
		path := filepath.Join(dir, cfgName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var path2regex = strings.NewReplacer(
	`.`, `\.`,
	`*`, `.+`,
	`\`, `[\\/]`,
	`/`, `[\\/]`,
)

// schemaFilenames expands globs. "**" walks every subdirectory below the part of
// the pattern that precedes it.
func schemaFilenames(globs StringList) (StringList, error) {
	matched := make(map[string]struct{})

	for _, glob := range globs {
		var filenames []string

		if strings.Contains(glob, "**") {
			pathParts := strings.SplitN(glob, "**", 2)
			rest := strings.TrimPrefix(strings.TrimPrefix(pathParts[1], `\`), `/`)
			// anchored only at the end: ** matches any number of directories
			globRe := regexp.MustCompile(path2regex.Replace(rest) + `$`)

			if err := filepath.Walk(pathParts[0], func(path string, _ os.FileInfo, err error) error {
				if err != nil {
					return fmt.Errorf("%w", err)
				}

				if globRe.MatchString(strings.TrimPrefix(path, pathParts[0])) {
					filenames = append(filenames, path)
				}

				return nil
			}); err != nil {
				return nil, fmt.Errorf("failed to walk schema at root %s: %w", pathParts[0], err)
			}
		} else {
			var err error

			filenames, err = filepath.Glob(glob)
			if err != nil {
				return nil, fmt.Errorf("failed to glob schema filename %s: %w", glob, err)
			}
		}

		for _, filename := range filenames {
			matched[filename] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(matched)), nil
}

func schemaFileSources(filenames StringList) ([]*ast.Source, error) {
	sources := make([]*ast.Source, 0, len(filenames))

	for _, filename := range filenames {
		filename = filepath.ToSlash(filename)

		schemaRaw, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("unable to open schema: %w", err)
		}

		sources = append(sources, &ast.Source{Name: filename, Input: string(schemaRaw)})
	}

	return sources, nil
}
