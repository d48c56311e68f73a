// Package render implements the two-phase page template pipeline.
//
// Phase one (Outer) reads a page file and expands widget fragments written
// with [[ ]] delimiters against the fixed interactor tables. Its output is a
// Source: template text that still contains {{ }} expressions for request
// data. Phase two (Inner) parses that Source in memory and executes it with
// per-request Locals.
//
// Locals hold plain values, functions, and lazy producers. Producers are
// exposed to templates as zero-argument functions, so an expensive listing
// such as every known thing is only computed when a template calls it.
//
// A page may carry a Customize step that runs before phase two. It returns
// one Outcome (continue, redirect, or fail) and runs under a deadline; a step
// that overruns fails the request with ErrCustomizeTimeout.
//
// Usage:
//
//	outer := render.NewOuter(widgets.HTMLD(), widgets.Table())
//	src, err := outer.Expand("web/dynamic/things.html")
//	if err != nil {
//	    return err
//	}
//	err = render.NewInner().Render(w, "things.html", src, "text/html", locals)
//
// Templates are read and parsed on every request; nothing is cached.
package render
