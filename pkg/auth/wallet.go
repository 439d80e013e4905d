package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

// ChallengeMessage is what wallets sign to authenticate. The signature in
// the Authorization header must recover to the claimed address.
const ChallengeMessage = "Sign in to Nature Quest"

type WalletAuth struct {
	adminAddresses map[string]struct{}
	debugMode      bool
}

func NewWalletAuth(adminAddresses []string, debugMode bool) *WalletAuth {
	admins := make(map[string]struct{}, len(adminAddresses))
	for _, a := range adminAddresses {
		admins[strings.ToLower(a)] = struct{}{}
	}
	return &WalletAuth{
		adminAddresses: admins,
		debugMode:      debugMode,
	}
}

// WalletAuthMiddleware expects "Authorization: Wallet <address>:<signature>"
// where signature is a personal_sign over ChallengeMessage.
func (w *WalletAuth) WalletAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Wallet ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		credentials := strings.TrimPrefix(authHeader, "Wallet ")
		address, signature, found := strings.Cut(credentials, ":")
		if !found || !common.IsHexAddress(address) {
			log.Info("malformed wallet credentials")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid wallet credentials"})
			return
		}

		if !w.debugMode {
			if err := VerifySignature(address, signature, ChallengeMessage); err != nil {
				log.Info("invalid wallet signature", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid wallet signature"})
				return
			}
		}

		c.Set("wallet_address", common.HexToAddress(address).Hex())
		c.Next()
	}
}

// AdminOnly allows only wallets listed in the admin configuration.
func (w *WalletAuth) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		address, exists := c.Get("wallet_address")
		if !exists {
			log.Error("wallet address not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		addr, ok := address.(string)
		if !ok {
			log.Error("invalid type assertion for wallet address")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if _, ok := w.adminAddresses[strings.ToLower(addr)]; !ok {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.String("wallet_address", addr))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}

// VerifySignature recovers the signer of a personal_sign message and
// compares it to the claimed address.
func VerifySignature(address, signatureHex, message string) error {
	signature, err := hexutil.Decode(signatureHex)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	// Wallets return V as 27/28; go-ethereum expects 0/1.
	if signature[crypto.RecoveryIDOffset] >= 27 {
		signature[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), signature)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if !strings.EqualFold(recovered.Hex(), address) {
		return fmt.Errorf("signature recovered %s, expected %s", recovered.Hex(), address)
	}
	return nil
}
