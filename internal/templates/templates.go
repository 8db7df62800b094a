// Package templates holds the built-in entity type blueprints.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/personapanel/internal/core/model"
)

//go:embed data/*.yaml
var embeddedFS embed.FS

var (
	loadOnce sync.Once
	loaded   []model.Template
	loadErr  error
)

// All returns the embedded templates sorted by id.
func All() ([]model.Template, error) {
	loadOnce.Do(func() {
		loaded, loadErr = LoadFromFS(embeddedFS)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]model.Template, len(loaded))
	copy(out, loaded)
	return out, nil
}

// Get returns the embedded template with the given id.
func Get(id string) (*model.Template, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("template %s: %w", id, model.ErrNotFound)
}

// LoadFromFS reads every data/*.yaml file in fsys. Each file holds one
// template whose id matches the file name.
func LoadFromFS(fsys fs.FS) ([]model.Template, error) {
	paths, err := fs.Glob(fsys, "data/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no template files found")
	}
	sort.Strings(paths)

	out := make([]model.Template, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", p, err)
		}
		tpl, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p, err)
		}
		if want := strings.TrimSuffix(path.Base(p), path.Ext(p)); tpl.ID != want {
			return nil, fmt.Errorf("template %s: id %q must match file name %q", p, tpl.ID, want)
		}
		out = append(out, tpl)
	}
	return out, nil
}

func parse(data []byte) (model.Template, error) {
	var tpl model.Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tpl); err != nil {
		return model.Template{}, err
	}

	et := tpl.EntityType()
	if err := et.Validate(); err != nil {
		return model.Template{}, err
	}
	tpl.Dimensions = et.Dimensions
	return tpl, nil
}
