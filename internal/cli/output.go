package cli

import (
	"fmt"
	"os"
)

// emit writes action output: the JSON envelope in machine mode, the
// human rendering otherwise.
func emit(data interface{}, human func() string) error {
	if machineMode {
		return WriteJSONSuccess(os.Stdout, data)
	}
	fmt.Print(human())
	return nil
}
