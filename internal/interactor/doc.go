// Package interactor holds the widget fragments pages embed for recipes.
//
// Each interactor has an HTML fragment, an optional script, and a match
// rule over a recipe's attribute fields. Pages pull fragments in during
// the first render phase with [[ widget "color" ]]; the fragments
// themselves bind recipe data with {{ }} in the second phase.
//
// Built-in interactors, tried in order:
//
//	color   iot:format is iot:format.color
//	switch  iot:type is iot:type.boolean
//	slider  numeric iot:type with iot:minimum and iot:maximum
//	text    anything else
package interactor
