// Package design builds CouchDB design documents from a folder tree.
//
// The tree holds one folder per database, then one folder per design document:
//
//	<database>/<design>/views/<view>/map.js
//	<database>/<design>/views/<view>/reduce.js   (optional)
//	<database>/<design>/filters/<filter>.js
//	<database>/<design>/validate_doc_update.js
//
// The design documents needed by the platform are embedded in the binary.
package design

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/openag/openag-go/pkg/model"
)

//go:embed designs
var designs embed.FS

const (
	language = "javascript"
	ext      = ".js"

	viewsDir          = "views"
	filtersDir        = "filters"
	mapFile           = "map.js"
	reduceFile        = "reduce.js"
	validateFile      = "validate_doc_update.js"
	validateFieldName = "validate_doc_update"
)

// Embedded design document tree
func Embedded() afero.Fs {
	sub, err := fs.Sub(designs, "designs")
	if err != nil {
		panic(err)
	}
	return afero.FromIOFS{FS: sub}
}

// Load builds the design documents of every database found at the root of the tree.
//
// Documents are returned per database, sorted by id.
func Load(tree afero.Fs) (map[string][]model.Record, error) {
	databases, err := afero.ReadDir(tree, ".")
	if err != nil {
		return nil, fmt.Errorf("read design tree: %w", err)
	}

	docs := make(map[string][]model.Record)
	for _, db := range databases {
		if !db.IsDir() {
			continue
		}
		ddocs, err := afero.ReadDir(tree, db.Name())
		if err != nil {
			return nil, err
		}
		for _, ddoc := range ddocs {
			if !ddoc.IsDir() {
				continue
			}
			doc, err := loadDocument(tree, path.Join(db.Name(), ddoc.Name()))
			if err != nil {
				return nil, fmt.Errorf("design document %s/%s: %w", db.Name(), ddoc.Name(), err)
			}
			docs[db.Name()] = append(docs[db.Name()], doc)
		}
		sort.Slice(docs[db.Name()], func(i, j int) bool {
			return docs[db.Name()][i].ID() < docs[db.Name()][j].ID()
		})
	}
	return docs, nil
}

func loadDocument(tree afero.Fs, dir string) (model.Record, error) {
	doc := model.Record{
		model.FieldID: model.DesignPrefix + path.Base(dir),
		"language":    language,
	}

	views, err := loadViews(tree, path.Join(dir, viewsDir))
	if err != nil {
		return nil, err
	}
	if len(views) > 0 {
		doc[viewsDir] = views
	}

	filters, err := loadFunctions(tree, path.Join(dir, filtersDir))
	if err != nil {
		return nil, err
	}
	if len(filters) > 0 {
		doc[filtersDir] = filters
	}

	validate, found, err := readSource(tree, path.Join(dir, validateFile))
	if err != nil {
		return nil, err
	}
	if found {
		doc[validateFieldName] = validate
	}
	return doc, nil
}

func loadViews(tree afero.Fs, dir string) (map[string]interface{}, error) {
	entries, err := readDirIfExists(tree, dir)
	if err != nil {
		return nil, err
	}
	views := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		viewDir := path.Join(dir, entry.Name())
		mapFn, found, err := readSource(tree, path.Join(viewDir, mapFile))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("view %s has no %s", entry.Name(), mapFile)
		}
		view := map[string]interface{}{"map": mapFn}

		reduceFn, found, err := readSource(tree, path.Join(viewDir, reduceFile))
		if err != nil {
			return nil, err
		}
		if found {
			view["reduce"] = reduceFn
		}
		views[entry.Name()] = view
	}
	return views, nil
}

func loadFunctions(tree afero.Fs, dir string) (map[string]interface{}, error) {
	entries, err := readDirIfExists(tree, dir)
	if err != nil {
		return nil, err
	}
	functions := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ext {
			continue
		}
		source, _, err := readSource(tree, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		functions[strings.TrimSuffix(entry.Name(), ext)] = source
	}
	return functions, nil
}

func readDirIfExists(tree afero.Fs, dir string) ([]os.FileInfo, error) {
	exists, err := afero.DirExists(tree, dir)
	if err != nil || !exists {
		return nil, err
	}
	return afero.ReadDir(tree, dir)
}

func readSource(tree afero.Fs, file string) (string, bool, error) {
	b, err := afero.ReadFile(tree, file)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(string(b), " \t\r\n"), true, nil
}
