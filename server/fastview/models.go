// fastview implements a builder pattern for simple server-side views:
// given an input data format, apply a transformation to a view-model,
// multiplex that data to one or more views, and sync their element updates
// to a web client over a websocket.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or one of the reserved property keys, values are the strings to which these are set.
	// Example: ('x','123') means 'set attribute 'x' to 123. 'textContent' and 'value' are reserved keys:
	// ('textContent','abc') means 'set ele.textContent to abc'. Setting the value property, rather than the
	// attribute, is what moves a slider that the user has already touched.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent implements server side views: Parse to add their initial form
// to the page template and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component and adds it to the passed parent template, thus inheriting
	// or possibly extending its definition (func-map, etc). Returns the name of the defined template.
	Parse(*template.Template) (string, error)
}
