package variables

import "fmt"

// UnknownVariableError reports a canonical name with no crosswalk entry.
type UnknownVariableError struct {
	Name string
}

func (e UnknownVariableError) Error() string {
	return fmt.Sprintf("variable %q not in crosswalk; use search to find available variables", e.Name)
}
