package actions

import (
	"net/http"
	"strings"
)

// Interoperability headers stamped on every protocol response so clients can
// negotiate supported action versions and chains.
const (
	HeaderActionVersion = "X-Action-Version"
	HeaderBlockchainIDs = "X-Blockchain-Ids"
)

// BlockchainIDSolanaMainnet is the CAIP-2 identifier for Solana mainnet-beta.
const BlockchainIDSolanaMainnet = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"

// DefaultVersion is the action spec version this service implements.
const DefaultVersion = "2.2"

var allowedHeaders = strings.Join([]string{
	"Content-Type",
	"Content-Encoding",
	"Authorization",
	"Accept-Encoding",
	"X-Accept-Action-Version",
	"X-Accept-Blockchain-Ids",
}, ", ")

// WrapInterop applies the permissive CORS policy blink clients require and
// stamps the version and supported-chain headers on every response, error
// responses included.
func WrapInterop(next http.Handler, version string, blockchainIDs []string) http.Handler {
	if version == "" {
		version = DefaultVersion
	}
	if len(blockchainIDs) == 0 {
		blockchainIDs = []string{BlockchainIDSolanaMainnet}
	}
	chains := strings.Join(blockchainIDs, ",")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Expose-Headers", HeaderActionVersion+", "+HeaderBlockchainIDs)
		h.Set(HeaderActionVersion, version)
		h.Set(HeaderBlockchainIDs, chains)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
