package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
)

//go:embed templates
var embedded embed.FS

// Registrar receives the templates loaded from a catalog
type Registrar interface {
	Register(category, id string, tpl *flow.Template) error
}

// Entry is one template file of the catalog
type Entry struct {
	Category string
	ID       string
	Path     string
	Template *flow.Template
}

// Result counts a seeding run
type Result struct {
	Loaded int
	Failed int
}

// FS returns the templates shipped with the binary, rooted at the category directories
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded templates missing: %v", err))
	}
	return sub
}

// Load reads every <category>/<id>.json|yaml|yml file of fsys.
// Files that fail to parse or validate are returned in the error list and skipped.
func Load(fsys fs.FS) ([]Entry, []error) {
	var (
		entries []Entry
		errs    []error
	)

	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		category, id, ok := keyFor(p)
		if !ok {
			return nil
		}

		tpl, err := loadFile(fsys, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			return nil
		}
		entries = append(entries, Entry{Category: category, ID: id, Path: p, Template: tpl})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, errs
}

// Seed registers the templates of fsys with reg
func Seed(reg Registrar, fsys fs.FS, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, errs := Load(fsys)
	result := Result{Failed: len(errs)}
	for _, err := range errs {
		logger.Warn("skipping catalog template", zap.Error(err))
	}

	for _, e := range entries {
		if err := reg.Register(e.Category, e.ID, e.Template); err != nil {
			result.Failed++
			logger.Warn("failed to register catalog template",
				zap.String("category", e.Category),
				zap.String("id", e.ID),
				zap.Error(err))
			continue
		}
		result.Loaded++
		logger.Debug("registered catalog template",
			zap.String("category", e.Category),
			zap.String("id", e.ID),
			zap.Int("nodes", len(e.Template.Data.Nodes)))
	}

	logger.Info("catalog seeded", zap.Int("loaded", result.Loaded), zap.Int("failed", result.Failed))
	return result
}

// keyFor maps "<category>/<id>.<ext>" to its registry key
func keyFor(p string) (category, id string, ok bool) {
	dir, file := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || strings.Contains(dir, "/") {
		return "", "", false
	}
	switch ext := path.Ext(file); ext {
	case ".json", ".yaml", ".yml":
		return dir, strings.TrimSuffix(file, ext), true
	default:
		return "", "", false
	}
}

func loadFile(fsys fs.FS, p string) (*flow.Template, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	if ext := path.Ext(p); ext == ".yaml" || ext == ".yml" {
		if data, err = yaml.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	}
	return flow.Decode(data)
}
