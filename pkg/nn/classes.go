package nn

import "strconv"

// Classes is a table of class names, indexed by the class id that a
// detector emits.
type Classes []string

// Name returns the human readable name of a class id.
// A detector can return an id that is outside our table (eg the server was
// upgraded to a model with more classes). We don't want that to kill a batch
// run, so unknown ids get a placeholder name.
func (c Classes) Name(id int) string {
	if id >= 0 && id < len(c) {
		return c[id]
	}
	return "class " + strconv.Itoa(id)
}
