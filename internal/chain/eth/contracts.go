package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Contract method names used by the deposit flow.
const (
	MethodApprove       = "approve"
	MethodAllowance     = "allowance"
	MethodBalanceOf     = "balanceOf"
	MethodWrap          = "deposit"
	MethodDepositSingle = "depositSingle"
	MethodDepositUSDC   = "depositUSDC"
	MethodDepositWETH   = "depositWETH"
)

const erc20JSON = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// WETH is an ERC-20 with a payable deposit() that mints wrapped tokens 1:1.
const wethJSON = `[
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const poolJSON = `[
	{"type":"function","name":"depositSingle","stateMutability":"nonpayable",
	 "inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"depositUSDC","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"depositWETH","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// Contract pairs a parsed ABI with a display name used in errors and logs.
type Contract struct {
	Name string
	ABI  abi.ABI
}

// Fixed contract interfaces.
//
//nolint:gochecknoglobals // Parsed once from embedded ABI definitions
var (
	ERC20 = mustContract("ERC20", erc20JSON)
	WETH  = mustContract("WETH", wethJSON)
	Pool  = mustContract("Pool", poolJSON)
)

func mustContract(name, definition string) Contract {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("parsing %s ABI: %v", name, err))
	}
	return Contract{Name: name, ABI: parsed}
}

// HasMethod reports whether the contract exposes method.
func (c Contract) HasMethod(method string) bool {
	_, ok := c.ABI.Methods[method]
	return ok
}

// Pack encodes calldata for method with args.
func (c Contract) Pack(method string, args ...any) ([]byte, error) {
	if !c.HasMethod(method) {
		return nil, poolerr.WithDetails(poolerr.ErrInvalidInput, map[string]string{
			"contract": c.Name,
			"method":   method,
			"reason":   "unknown method",
		})
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, poolerr.Wrap(err, "encoding %s.%s", c.Name, method)
	}
	return data, nil
}

// UnpackUint256 decodes the single uint256 returned by a view method.
func (c Contract) UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := c.ABI.Unpack(method, data)
	if err != nil {
		return nil, poolerr.WithCause(poolerr.ErrRPC, fmt.Errorf("decoding %s.%s: %w", c.Name, method, err))
	}
	if len(out) != 1 {
		return nil, poolerr.WithDetails(poolerr.ErrRPC, map[string]string{
			"method": method,
			"reason": fmt.Sprintf("expected 1 return value, got %d", len(out)),
		})
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, poolerr.WithDetails(poolerr.ErrRPC, map[string]string{
			"method": method,
			"reason": fmt.Sprintf("unexpected return type %T", out[0]),
		})
	}
	return v, nil
}

// DecodeRevertReason extracts the reason from Error(string) or Panic(uint256)
// revert data. It returns "" when data carries no decodable reason.
func DecodeRevertReason(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return ""
	}
	return reason
}
