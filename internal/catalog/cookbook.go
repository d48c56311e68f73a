package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ungrouped is the group of recipes that name no thing or group.
const ungrouped = "Ungrouped"

// Cookbook is one loaded cookbook file.
type Cookbook struct {
	ID      string `json:"cookbook_id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Recipes int    `json:"recipes"`
}

// cookbookFile is the YAML document stored in the cookbooks folder.
type cookbookFile struct {
	Name    string           `yaml:"name"`
	Recipes []map[string]any `yaml:"recipes"`
}

// privateRecipeKeys are dropped from the copies handed to pages.
var privateRecipeKeys = []string{"_context", "_valued", "watch"}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// LoadCookbooks replaces the recipe set with every *.yaml and *.yml
// document in dir, read in name order. Each file holds one or more
// cookbook documents. A missing directory loads nothing.
func (c *Catalog) LoadCookbooks(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		c.log().Debug("no cookbooks folder", "path", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cookbooks %s: %w", dir, err)
	}

	var (
		recipes   []map[string]any
		cookbooks []Cookbook
		seen      = map[string]bool{}
	)
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		books, err := readCookbookFile(path)
		if err != nil {
			return err
		}
		for i, book := range books {
			cb := Cookbook{
				ID:   slug(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
				Name: book.Name,
				Path: path,
			}
			if i > 0 {
				cb.ID = fmt.Sprintf("%s-%d", cb.ID, i)
			}
			if cb.Name == "" {
				cb.Name = cb.ID
			}
			for j, rd := range book.Recipes {
				if rd == nil {
					continue
				}
				rd = prepareRecipe(rd, cb, j)
				id, _ := rd["_id"].(string) //nolint:errcheck // prepareRecipe always sets a string id
				if seen[id] {
					c.log().Warn("duplicate recipe id, keeping first", "id", id, "cookbook", cb.Path)
					continue
				}
				seen[id] = true
				recipes = append(recipes, rd)
				cb.Recipes++
			}
			cookbooks = append(cookbooks, cb)
		}
	}

	c.mu.Lock()
	c.recipes = recipes
	c.cookbooks = cookbooks
	c.mu.Unlock()

	c.log().Debug("cookbooks loaded", "cookbooks", len(cookbooks), "recipes", len(recipes))
	return nil
}

func readCookbookFile(path string) ([]cookbookFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cookbook %s: %w", path, err)
	}

	var books []cookbookFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var book cookbookFile
		err := dec.Decode(&book)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadCookbook, path, err)
		}
		books = append(books, book)
	}
	return books, nil
}

// prepareRecipe fixes the identity fields of a freshly parsed recipe.
func prepareRecipe(rd map[string]any, cb Cookbook, index int) map[string]any {
	id, _ := rd["id"].(string) //nolint:errcheck // non-string ids are replaced
	if id == "" {
		name, _ := rd["name"].(string) //nolint:errcheck // unnamed recipes get a positional id
		if name != "" {
			id = cb.ID + "-" + slug(name)
		} else {
			id = fmt.Sprintf("%s-%d", cb.ID, index)
		}
	}
	rd["_id"] = id
	rd["cookbook"] = cb.Name
	rd["cookbook_id"] = cb.ID
	return rd
}

// Recipes returns copies of every recipe ready for display. Private keys
// are removed, _group is assigned, and assign (if set) annotates each copy.
func (c *Catalog) Recipes(assign func(map[string]any)) []map[string]any {
	c.mu.RLock()
	out := make([]map[string]any, 0, len(c.recipes))
	for _, rd := range c.recipes {
		out = append(out, cloneRecipe(rd))
	}
	c.mu.RUnlock()

	for _, rd := range out {
		for _, key := range privateRecipeKeys {
			delete(rd, key)
		}
		assignGroup(rd)
		if assign != nil {
			assign(rd)
		}
	}
	return out
}

// RecipeByID returns a copy of one recipe as stored.
func (c *Catalog) RecipeByID(id string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rd := range c.recipes {
		if rd["_id"] == id {
			return cloneRecipe(rd), true
		}
	}
	return nil, false
}

// Cookbooks returns the loaded cookbooks ordered by name.
func (c *Catalog) Cookbooks() []Cookbook {
	c.mu.RLock()
	out := append([]Cookbook(nil), c.cookbooks...)
	c.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// assignGroup sets _group from the first of thing_group, thing_name and
// group that is present.
func assignGroup(rd map[string]any) {
	for _, key := range []string{"thing_group", "_thing_group", "thing_name", "_thing_name", "group"} {
		if v, ok := rd[key].(string); ok && v != "" {
			rd["_group"] = v
			return
		}
	}
	rd["_group"] = ungrouped
}

// cloneRecipe copies the top level and any nested maps so callers can
// annotate attributes without touching the stored recipe.
func cloneRecipe(rd map[string]any) map[string]any {
	out := make(map[string]any, len(rd))
	for k, v := range rd {
		if m, ok := v.(map[string]any); ok {
			v = cloneRecipe(m)
		}
		out[k] = v
	}
	return out
}

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
