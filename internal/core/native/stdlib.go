package native

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// StdLib exposes stateless helpers (§4.6) with no storage of its own.
type StdLib struct {
	methods map[string]*Method
}

var stdLibHash = contractHash("StdLib")

func NewStdLib() *StdLib {
	s := &StdLib{}
	s.methods = map[string]*Method{
		"atoi":     {Name: "atoi", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 10, Handler: s.atoi},
		"itoa":     {Name: "itoa", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 10, Handler: s.itoa},
		"base58Encode": {Name: "base58Encode", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 12, Handler: s.base58Encode},
		"base58Decode": {Name: "base58Decode", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 12, Handler: s.base58Decode},
		"base64Encode": {Name: "base64Encode", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 12, Handler: s.base64Encode},
		"base64Decode": {Name: "base64Decode", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 12, Handler: s.base64Decode},
		"memorySearch": {Name: "memorySearch", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 12, Handler: s.memorySearch},
	}
	return s
}

func (s *StdLib) ID() int32                     { return -11 }
func (s *StdLib) Hash() util.Uint160             { return stdLibHash }
func (s *StdLib) Name() string                   { return "StdLib" }
func (s *StdLib) Methods() map[string]*Method    { return s.methods }

func (s *StdLib) atoi(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	str, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("atoi: expected string argument")
	}
	base := 10
	if len(args) > 1 {
		if b, ok := args[1].(int64); ok {
			base = int(b)
		}
	}
	v, err := strconv.ParseInt(str, base, 64)
	if err != nil {
		return nil, fmt.Errorf("atoi: %w", err)
	}
	return v, nil
}

func (s *StdLib) itoa(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	v, ok := args[0].(int64)
	if !ok {
		return nil, fmt.Errorf("itoa: expected integer argument")
	}
	base := 10
	if len(args) > 1 {
		if b, ok := args[1].(int64); ok {
			base = int(b)
		}
	}
	return strconv.FormatInt(v, base), nil
}

func (s *StdLib) base58Encode(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("base58Encode: expected byte argument")
	}
	return base58.Encode(b), nil
}

func (s *StdLib) base58Decode(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	str, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("base58Decode: expected string argument")
	}
	return base58.Decode(str)
}

func (s *StdLib) base64Encode(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("base64Encode: expected byte argument")
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (s *StdLib) base64Decode(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	str, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("base64Decode: expected string argument")
	}
	return base64.StdEncoding.DecodeString(str)
}

func (s *StdLib) memorySearch(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	mem, ok1 := args[0].([]byte)
	val, ok2 := args[1].([]byte)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("memorySearch: expected byte arguments")
	}
	start := 0
	if len(args) > 2 {
		if n, ok := args[2].(int64); ok {
			start = int(n)
		}
	}
	if start < 0 || start > len(mem) {
		return int64(-1), nil
	}
	for i := start; i+len(val) <= len(mem); i++ {
		if string(mem[i:i+len(val)]) == string(val) {
			return int64(i), nil
		}
	}
	return int64(-1), nil
}
