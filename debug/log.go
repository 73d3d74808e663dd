package debug

import (
	"encoding/hex"
	"fmt"
	"os"
	"reflect"
)

// Logf writes a debug line to stderr. Byte slices are hex dumped and
// reflect.Types are printed by name.
func Logf(msg string, args ...any) {
	for i := range args {
		switch x := args[i].(type) {
		case []byte:
			args[i] = hex.EncodeToString(x)
		case reflect.Type:
			if x == nil {
				args[i] = "<nil type>"
				continue
			}
			args[i] = x.String()
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
