package sqlite

import (
	"database/sql/driver"
	"sync"

	"modernc.org/sqlite"

	"github.com/custodia-labs/osmdoc/internal/adapters/driven/storage/engine"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the scalar functions the filter compiler
// emits. Registration is process-wide and applies to new connections.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("to_double", 1, toDouble)
	})
	return registerErr
}

// toDouble converts its argument to a REAL, NULL for NULL input. Text that
// does not parse as a number is an error, failing the statement.
func toDouble(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	v := args[0]
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	f, ok, err := engine.ToDouble(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return f, nil
}
