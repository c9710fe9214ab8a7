// Package blinkapi exposes the redemption flow over HTTP in the Solana
// Actions wire format.
package blinkapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/superbasedd/merch-blink/internal/actions"
	"github.com/superbasedd/merch-blink/internal/redeem"
)

var ErrInvalidConfig = errors.New("blinkapi: invalid config")

// Flow is the protocol surface the handler drives. Implemented by
// redeem.Flow.
type Flow interface {
	Quote() (actions.Response, error)
	CheckEligibility(ctx context.Context, owner solana.PublicKey, sessionRef string) (actions.Response, error)
	ShipmentForm(ctx context.Context, owner solana.PublicKey, sessionRef string) (actions.Response, error)
	Redeem(ctx context.Context, owner solana.PublicKey, sessionRef string, data redeem.FormData) (actions.Response, error)
	Completed(ctx context.Context, sessionRef, signature string) (actions.Response, error)
}

type Config struct {
	BasePath      string
	Version       string
	BlockchainIDs []string

	MaxBodyBytes int64

	RateLimitPerIPPerSecond float64
	RateLimitBurst          int
	RateLimitMaxTrackedIPs  int

	Logger *slog.Logger
	Now    func() time.Time
}

func NewHandler(cfg Config, flow Flow) (http.Handler, error) {
	if flow == nil {
		return nil, fmt.Errorf("%w: nil flow", ErrInvalidConfig)
	}
	if cfg.BasePath == "" || !strings.HasPrefix(cfg.BasePath, "/") {
		return nil, fmt.Errorf("%w: base path must start with /", ErrInvalidConfig)
	}
	if cfg.Version == "" {
		cfg.Version = actions.DefaultVersion
	}
	if len(cfg.BlockchainIDs) == 0 {
		cfg.BlockchainIDs = []string{actions.BlockchainIDSolanaMainnet}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	if cfg.RateLimitPerIPPerSecond <= 0 {
		cfg.RateLimitPerIPPerSecond = 20
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 40
	}
	if cfg.RateLimitMaxTrackedIPs <= 0 {
		cfg.RateLimitMaxTrackedIPs = 10_000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &handler{
		cfg:  cfg,
		flow: flow,
		limiter: newIPRateLimiter(
			cfg.RateLimitPerIPPerSecond,
			float64(cfg.RateLimitBurst),
			cfg.RateLimitMaxTrackedIPs,
		),
	}

	base := strings.TrimSuffix(cfg.BasePath, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET "+base, h.handleQuote)
	mux.HandleFunc("POST "+base+"/check-redeem-eligibility", h.handleCheckEligibility)
	mux.HandleFunc("POST "+base+"/fill-shipment-form", h.handleShipmentForm)
	mux.HandleFunc("POST "+base+"/redeem", h.handleRedeem)
	mux.HandleFunc("POST "+base+"/completed", h.handleCompleted)

	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health checks must never be throttled.
		if r.URL.Path == "/healthz" {
			mux.ServeHTTP(w, r)
			return
		}

		now := h.cfg.Now().UTC()
		allowed := h.limiter.Allow(clientIP(r), now)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.cfg.RateLimitBurst))
		if !allowed {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, "Too many requests, please slow down")
			return
		}
		mux.ServeHTTP(w, r)
	})
	return actions.WrapInterop(limited, cfg.Version, cfg.BlockchainIDs), nil
}

type handler struct {
	cfg     Config
	flow    Flow
	limiter *ipRateLimiter
}

func (h *handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	resp, err := h.flow.Quote()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type postBody struct {
	Account   string          `json:"account"`
	Signature string          `json:"signature"`
	Data      json.RawMessage `json:"data"`
}

type redeemData struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Address string `json:"address"`
	Email   string `json:"email"`
	NFTName string `json:"nftName"`
	Size    string `json:"size"`
}

func (h *handler) handleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	owner, ok := h.parseAccount(w, r, body.Account)
	if !ok {
		return
	}
	resp, err := h.flow.CheckEligibility(r.Context(), owner, sessionReference(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleShipmentForm(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	owner, ok := h.parseAccount(w, r, body.Account)
	if !ok {
		return
	}
	resp, err := h.flow.ShipmentForm(r.Context(), owner, sessionReference(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	owner, ok := h.parseAccount(w, r, body.Account)
	if !ok {
		return
	}
	var data redeemData
	if len(body.Data) > 0 {
		if err := json.Unmarshal(body.Data, &data); err != nil {
			h.cfg.Logger.Warn("malformed redeem data", "error", err)
			writeMessage(w, http.StatusUnprocessableEntity, redeem.MsgRedeemNotAvailable)
			return
		}
	}
	resp, err := h.flow.Redeem(r.Context(), owner, sessionReference(r), redeem.FormData{
		Name:    data.Name,
		Country: data.Country,
		Address: data.Address,
		Email:   data.Email,
		NFTName: data.NFTName,
		Size:    data.Size,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleCompleted(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	resp, err := h.flow.Completed(r.Context(), sessionReference(r), body.Signature)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request) (postBody, bool) {
	var out postBody
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
		h.cfg.Logger.Warn("malformed request body", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusUnprocessableEntity, redeem.MsgRedeemNotAvailable)
		return out, false
	}
	return out, true
}

func (h *handler) parseAccount(w http.ResponseWriter, r *http.Request, account string) (solana.PublicKey, bool) {
	owner, err := solana.PublicKeyFromBase58(strings.TrimSpace(account))
	if err != nil {
		h.cfg.Logger.Warn("invalid account", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusUnprocessableEntity, redeem.MsgRedeemNotAvailable)
		return solana.PublicKey{}, false
	}
	return owner, true
}

// writeError maps flow failures to the wire. User errors carry their message;
// anything else is a retryable resolution failure whose cause is only logged.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *redeem.UserError
	if errors.As(err, &ue) {
		writeMessage(w, http.StatusUnprocessableEntity, ue.Message)
		return
	}
	h.cfg.Logger.Error("step failed", "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusUnprocessableEntity, redeem.MsgTryAgainLater)
}

func sessionReference(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("sessionReference"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}
