package reward

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Receipt is the gateway's outcome contract: a success flag plus the
// transaction hash, empty when the transfer did not go through.
type Receipt struct {
	Result          bool   `json:"result"`
	TransactionHash string `json:"transactionHash"`
}

// Gateway issues the token transfer for a quest reward.
type Gateway interface {
	Transfer(ctx context.Context, recipient string, amount int) (*Receipt, error)
}

const erc20TransferABI = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

const transferGasLimit = 100_000

type Config struct {
	RPCURL          string        `yaml:"rpcUrl"`
	ContractAddress string        `yaml:"contractAddress"`
	AgentPrivateKey string        `yaml:"agentPrivateKey"`
	ChainID         int64         `yaml:"chainId"`
	Timeout         time.Duration `yaml:"timeout"`
}

func (c Config) validate() error {
	var missing []string
	if c.RPCURL == "" {
		missing = append(missing, "rpcUrl")
	}
	if c.ContractAddress == "" {
		missing = append(missing, "contractAddress")
	}
	if c.AgentPrivateKey == "" {
		missing = append(missing, "agentPrivateKey")
	}
	if c.ChainID == 0 {
		missing = append(missing, "chainId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing chain configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// TokenGateway transfers ERC-20 reward tokens from the agent account over
// JSON-RPC. Amounts are whole token units, scaled by 18 decimals on the wire.
type TokenGateway struct {
	client   *ethclient.Client
	erc20    abi.ABI
	key      *ecdsa.PrivateKey
	agent    common.Address
	contract common.Address
	chainID  *big.Int
	timeout  time.Duration
}

var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func NewTokenGateway(cfg Config) (*TokenGateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.AgentPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid agent private key: %w", err)
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", cfg.ContractAddress)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}

	erc20, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &TokenGateway{
		client:   client,
		erc20:    erc20,
		key:      key,
		agent:    crypto.PubkeyToAddress(key.PublicKey),
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  big.NewInt(cfg.ChainID),
		timeout:  timeout,
	}, nil
}

func (g *TokenGateway) Transfer(ctx context.Context, recipient string, amount int) (*Receipt, error) {
	failed := &Receipt{Result: false, TransactionHash: ""}

	if !common.IsHexAddress(recipient) {
		return failed, fmt.Errorf("invalid recipient address: %s", recipient)
	}
	if amount <= 0 {
		return failed, fmt.Errorf("reward amount must be positive, got %d", amount)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	value := new(big.Int).Mul(big.NewInt(int64(amount)), weiPerToken)
	data, err := g.erc20.Pack("transfer", common.HexToAddress(recipient), value)
	if err != nil {
		return failed, fmt.Errorf("failed to pack transfer call: %w", err)
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.agent)
	if err != nil {
		return failed, fmt.Errorf("failed to fetch agent nonce: %w", err)
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return failed, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &g.contract,
		Value:    big.NewInt(0),
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(g.chainID), g.key)
	if err != nil {
		return failed, fmt.Errorf("failed to sign transfer: %w", err)
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return failed, fmt.Errorf("failed to send transfer: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, g.client, signed)
	if err != nil {
		// Timed out waiting for the receipt counts as payment failure,
		// not unknown.
		return failed, fmt.Errorf("failed waiting for transfer receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return failed, fmt.Errorf("transfer reverted, tx %s", signed.Hash().Hex())
	}

	logger.Logger().Info("reward transfer mined",
		zap.String("recipient", recipient),
		zap.Int("amount", amount),
		zap.String("tx_hash", signed.Hash().Hex()))

	return &Receipt{Result: true, TransactionHash: signed.Hash().Hex()}, nil
}
