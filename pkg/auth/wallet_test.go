package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signChallenge signs the message the way a browser wallet does: a
// personal_sign over the challenge with V encoded as 27/28.
func signChallenge(t *testing.T, message string) (address, signature string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestVerifySignature(t *testing.T) {
	address, signature := signChallenge(t, ChallengeMessage)

	tests := []struct {
		name        string
		address     string
		signature   string
		message     string
		expectError bool
	}{
		{
			name:      "Valid signature",
			address:   address,
			signature: signature,
			message:   ChallengeMessage,
		},
		{
			name:        "Signature recovers a different address",
			address:     "0x0000000000000000000000000000000000000001",
			signature:   signature,
			message:     ChallengeMessage,
			expectError: true,
		},
		{
			name:        "Signature over a different message",
			address:     address,
			signature:   signature,
			message:     "some other challenge",
			expectError: true,
		},
		{
			name:        "Not hex",
			address:     address,
			signature:   "not-a-signature",
			message:     ChallengeMessage,
			expectError: true,
		},
		{
			name:        "Truncated signature",
			address:     address,
			signature:   "0xdeadbeef",
			message:     ChallengeMessage,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.address, tt.signature, tt.message)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWalletAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	address, signature := signChallenge(t, ChallengeMessage)

	tests := []struct {
		name           string
		authHeader     string
		debugMode      bool
		expectedStatus int
	}{
		{
			name:           "Valid wallet credentials",
			authHeader:     "Wallet " + address + ":" + signature,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong scheme",
			authHeader:     "Bearer " + address,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Not an address",
			authHeader:     "Wallet nobody:" + signature,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Bad signature",
			authHeader:     "Wallet " + address + ":0xdeadbeef",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Debug mode skips signature verification",
			authHeader:     "Wallet " + address + ":whatever",
			debugMode:      true,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewWalletAuth(nil, tt.debugMode)

			router := gin.New()
			router.GET("/protected", auth.WalletAuthMiddleware(), func(c *gin.Context) {
				got, _ := c.Get("wallet_address")
				assert.Equal(t, address, got)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	address, signature := signChallenge(t, ChallengeMessage)

	tests := []struct {
		name           string
		admins         []string
		expectedStatus int
	}{
		{
			name:           "Listed admin passes",
			admins:         []string{address},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Admin list is case insensitive",
			admins:         []string{"0X" + address[2:]},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unlisted wallet is forbidden",
			admins:         []string{"0x0000000000000000000000000000000000000001"},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewWalletAuth(tt.admins, false)

			router := gin.New()
			router.POST("/admin", auth.WalletAuthMiddleware(), auth.AdminOnly(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			req.Header.Set("Authorization", "Wallet "+address+":"+signature)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
