package routes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// templateFile matches the entries a folder contributes.
var templateFile = regexp.MustCompile(`^(.*)[.](js|html)$`)

// Logger is the logging interface used by the compiler.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Compiler accumulates the route list for one mount point.
//
// Thread Safety:
//   - Not safe for concurrent use. Routes are compiled once at startup.
type Compiler struct {
	index  string
	logger Logger

	routes []RouteSpec
	paths  map[string]int
	// indexFrom is the template that won the index, "" if none yet.
	indexFrom string
}

// NewCompiler creates a compiler treating files named index as the root page.
func NewCompiler(index string) *Compiler {
	return &Compiler{
		index:  index,
		logger: noopLogger{},
		paths:  make(map[string]int),
	}
}

// SetLogger sets the logger used for skipped entries.
func (c *Compiler) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// AddFolder compiles the template entries of dir.
//
// The folder contributes all of its routes or none: on a collision nothing
// from dir is added.
//
// Parameters:
//   - dir: Folder holding <name>.html and <name>.js templates
//
// Returns:
//   - error: If the folder cannot be read, or ErrRouteCollision
func (c *Compiler) AddFolder(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading template folder: %w", err)
	}

	var batch []RouteSpec
	indexTaken := c.indexFrom != "" || c.has("/")

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		match := templateFile.FindStringSubmatch(file)
		if match == nil {
			continue
		}
		base, ext := match[1], match[2]
		template := filepath.Join(dir, file)

		switch {
		case file == c.index:
			if indexTaken {
				c.logger.Warn("index already registered, skipping",
					"template", template,
					"index", c.indexFrom,
				)
				continue
			}
			indexTaken = true
			batch = append(batch,
				RouteSpec{
					Path:        "/",
					Kind:        KindPage,
					Template:    template,
					Mount:       base,
					ContentType: ContentTypeHTML,
					Index:       true,
				},
				redirect("/"+base, "/"),
				redirect("/"+file, "/"),
			)
		case ext == "html":
			batch = append(batch,
				RouteSpec{
					Path:        "/" + base,
					Kind:        KindPage,
					Template:    template,
					Mount:       base,
					ContentType: ContentTypeHTML,
				},
				redirect("/"+file, "/"+base),
			)
		case ext == "js":
			batch = append(batch, RouteSpec{
				Path:        "/" + file,
				Kind:        KindPage,
				Template:    template,
				Mount:       file,
				ContentType: ContentTypeScript,
			})
		}
	}

	seen := make(map[string]bool, len(batch))
	for _, spec := range batch {
		if c.has(spec.Path) || seen[spec.Path] {
			return fmt.Errorf("%w: %s (from %s)", ErrRouteCollision, spec.Path, dir)
		}
		seen[spec.Path] = true
	}

	for _, spec := range batch {
		c.append(spec)
		c.logger.Debug("route compiled", "path", spec.Path, "kind", spec.Kind.String(), "template", spec.Template)
	}
	return nil
}

// Add registers a single route, typically from an extension.
func (c *Compiler) Add(spec RouteSpec) error {
	if err := spec.validate(); err != nil {
		return fmt.Errorf("%w: %q", err, spec.Path)
	}
	if c.has(spec.Path) {
		return fmt.Errorf("%w: %s", ErrRouteCollision, spec.Path)
	}
	if spec.Kind == KindPage && spec.ContentType == "" {
		spec.ContentType = ContentTypeHTML
	}
	if spec.Path == "/" {
		spec.Index = true
	}
	c.append(spec)
	return nil
}

// Routes returns the compiled routes in registration order.
func (c *Compiler) Routes() []RouteSpec {
	out := make([]RouteSpec, len(c.routes))
	copy(out, c.routes)
	return out
}

// Index returns the route serving "/", if any.
func (c *Compiler) Index() (RouteSpec, bool) {
	if i, ok := c.paths["/"]; ok {
		return c.routes[i], true
	}
	return RouteSpec{}, false
}

func (c *Compiler) has(path string) bool {
	_, ok := c.paths[path]
	return ok
}

func (c *Compiler) append(spec RouteSpec) {
	if spec.Index {
		c.indexFrom = spec.Template
	}
	c.paths[spec.Path] = len(c.routes)
	c.routes = append(c.routes, spec)
}

func redirect(path, target string) RouteSpec {
	return RouteSpec{
		Path:   path,
		Kind:   KindRedirect,
		Target: target,
	}
}
