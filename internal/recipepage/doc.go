// Package recipepage provides the recipe detail page.
//
// The extension serves /recipes/{id} through the hub's page pipeline. Its
// customize step looks the recipe up in the catalog and answers 404 for
// unknown ids, so the template always sees a populated "recipe" local.
package recipepage
